package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roamio/roamio/internal/domain"
	"github.com/roamio/roamio/internal/event"
	"github.com/roamio/roamio/internal/repository"
	apperrors "github.com/roamio/roamio/pkg/errors"
	pkgkafka "github.com/roamio/roamio/pkg/kafka"
)

// --- Mock Repositories ---

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Int(1), args.Error(2)
}

func (m *mockBookingRepository) Respond(ctx context.Context, id string, status string, message string) error {
	args := m.Called(ctx, id, status, message)
	return args.Error(0)
}

type mockExperienceRepository struct {
	mock.Mock
}

func (m *mockExperienceRepository) Create(ctx context.Context, experience *domain.Experience) error {
	args := m.Called(ctx, experience)
	return args.Error(0)
}

func (m *mockExperienceRepository) GetByID(ctx context.Context, id string) (*domain.Experience, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Experience), args.Error(1)
}

func (m *mockExperienceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Experience, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Experience), args.Error(1)
}

func (m *mockExperienceRepository) List(ctx context.Context, filter repository.ExperienceFilter) ([]domain.Experience, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Experience), args.Int(1), args.Error(2)
}

func (m *mockExperienceRepository) Update(ctx context.Context, experience *domain.Experience) error {
	args := m.Called(ctx, experience)
	return args.Error(0)
}

func (m *mockExperienceRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockExperienceRepository) AddPhoto(ctx context.Context, photo *domain.ExperiencePhoto) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}

func (m *mockExperienceRepository) DeletePhoto(ctx context.Context, experienceID, photoID string) error {
	args := m.Called(ctx, experienceID, photoID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	// Kafka producer that will fail silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newBookingTestService(repo *mockBookingRepository, experiences *mockExperienceRepository) *BookingService {
	return NewBookingService(repo, experiences, newTestProducer(), newTestLogger())
}

func strPtr(s string) *string {
	return &s
}

func publishedExperience() *domain.Experience {
	return &domain.Experience{
		ID:     "exp-001",
		Title:  "Old Town Walking Tour",
		Slug:   "old-town-walking-tour",
		Status: domain.ExperienceStatusPublished,
	}
}

func validBookingInput() SubmitBookingInput {
	return SubmitBookingInput{
		ExperienceID:   "exp-001",
		RequesterName:  "Jane Doe",
		RequesterEmail: "jane@example.com",
		RequesterPhone: "+49 170 0000000",
		BookedDate:     time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		Items: []SubmitBookingItemInput{
			{ProductName: "Adult ticket", Quantity: 2, UnitPrice: 4500},
			{ProductName: "Child ticket", Quantity: 1, UnitPrice: 2500},
		},
	}
}

// --- Submit Tests ---

func TestSubmitBooking_Success(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	experiences.On("GetByID", ctx, "exp-001").Return(publishedExperience(), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)

	booking, err := svc.SubmitBooking(ctx, validBookingInput())

	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "exp-001", booking.ExperienceID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Empty(t, booking.ResponseMessage)
	assert.Nil(t, booking.RespondedAt)
	assert.Len(t, booking.Items, 2)
	assert.NotZero(t, booking.CreatedAt)

	// Items carry the booking id and fresh ids of their own.
	for _, item := range booking.Items {
		assert.Equal(t, booking.ID, item.BookingID)
		assert.NotEmpty(t, item.ID)
	}

	repo.AssertExpectations(t)
	experiences.AssertExpectations(t)
}

func TestSubmitBooking_TrimsRequesterFields(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	experiences.On("GetByID", ctx, "exp-001").Return(publishedExperience(), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)

	input := validBookingInput()
	input.RequesterName = "  Jane Doe  "
	input.RequesterEmail = " jane@example.com "

	booking, err := svc.SubmitBooking(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", booking.RequesterName)
	assert.Equal(t, "jane@example.com", booking.RequesterEmail)
}

func TestSubmitBooking_MissingName(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	input := validBookingInput()
	input.RequesterName = "   "

	booking, err := svc.SubmitBooking(context.Background(), input)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmitBooking_EmptyItems(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	input := validBookingInput()
	input.Items = nil

	booking, err := svc.SubmitBooking(context.Background(), input)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmitBooking_ZeroQuantity(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	input := validBookingInput()
	input.Items[0].Quantity = 0

	booking, err := svc.SubmitBooking(context.Background(), input)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmitBooking_ExperienceNotFound(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	experiences.On("GetByID", ctx, "exp-001").Return(nil, apperrors.ErrNotFound)

	booking, err := svc.SubmitBooking(ctx, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	experiences.AssertExpectations(t)
}

func TestSubmitBooking_ExperienceNotBookable(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	draft := publishedExperience()
	draft.Status = domain.ExperienceStatusDraft
	experiences.On("GetByID", ctx, "exp-001").Return(draft, nil)

	booking, err := svc.SubmitBooking(ctx, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	experiences.AssertExpectations(t)
}

// --- Get / List Tests ---

func TestGetBooking_NotFound(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	repo.On("GetByID", ctx, "nonexistent").Return(nil, apperrors.ErrNotFound)

	booking, err := svc.GetBooking(ctx, "nonexistent")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestListBookings_Success(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	expected := []domain.Booking{
		{ID: "booking-1", Status: domain.BookingStatusPending},
		{ID: "booking-2", Status: domain.BookingStatusConfirmed},
	}

	filter := repository.BookingFilter{
		ExperienceID: strPtr("exp-001"),
		Page:         1,
		PerPage:      20,
	}

	repo.On("List", ctx, filter).Return(expected, 2, nil)

	bookings, total, err := svc.ListBookings(ctx, filter)

	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, 2, total)

	repo.AssertExpectations(t)
}

func TestListBookings_DefaultPagination(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	expectedFilter := repository.BookingFilter{Page: 1, PerPage: 20}

	repo.On("List", ctx, expectedFilter).Return([]domain.Booking{}, 0, nil)

	bookings, total, err := svc.ListBookings(ctx, repository.BookingFilter{})

	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, 0, total)

	repo.AssertExpectations(t)
}

func TestListBookings_InvalidStatusFilter(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	filter := repository.BookingFilter{Status: strPtr("shipped")}

	bookings, total, err := svc.ListBookings(context.Background(), filter)

	assert.Nil(t, bookings)
	assert.Zero(t, total)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListBookings_InvertedDateRange(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	from := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	filter := repository.BookingFilter{BookedFrom: &from, BookedTo: &to}

	bookings, _, err := svc.ListBookings(context.Background(), filter)

	assert.Nil(t, bookings)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Respond Tests ---

func TestRespondToBooking_Confirm(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	respondedAt := time.Now().UTC()
	decided := &domain.Booking{
		ID:              "booking-123",
		ExperienceID:    "exp-001",
		Status:          domain.BookingStatusConfirmed,
		ResponseMessage: "See you at 9am",
		RespondedAt:     &respondedAt,
	}

	repo.On("Respond", ctx, "booking-123", domain.BookingStatusConfirmed, "See you at 9am").Return(nil)
	repo.On("GetByID", ctx, "booking-123").Return(decided, nil)

	booking, err := svc.RespondToBooking(ctx, "booking-123", domain.BookingStatusConfirmed, "See you at 9am")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, "See you at 9am", booking.ResponseMessage)
	assert.NotNil(t, booking.RespondedAt)

	repo.AssertExpectations(t)
}

func TestRespondToBooking_TrimsMessage(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	decided := &domain.Booking{
		ID:              "booking-123",
		Status:          domain.BookingStatusDeclined,
		ResponseMessage: "Fully booked that day",
	}

	repo.On("Respond", ctx, "booking-123", domain.BookingStatusDeclined, "Fully booked that day").Return(nil)
	repo.On("GetByID", ctx, "booking-123").Return(decided, nil)

	_, err := svc.RespondToBooking(ctx, "booking-123", domain.BookingStatusDeclined, "  Fully booked that day  ")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRespondToBooking_EmptyMessage(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	booking, err := svc.RespondToBooking(context.Background(), "booking-123", domain.BookingStatusConfirmed, "   ")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRespondToBooking_InvalidDecision(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)

	booking, err := svc.RespondToBooking(context.Background(), "booking-123", domain.BookingStatusPending, "message")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRespondToBooking_AlreadyDecided(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	decided := &domain.Booking{
		ID:              "booking-123",
		Status:          domain.BookingStatusDeclined,
		ResponseMessage: "Fully booked that day",
	}

	// The conditional update matches no pending row; the follow-up read
	// finds the booking already declined.
	repo.On("Respond", ctx, "booking-123", domain.BookingStatusConfirmed, "Second thoughts").Return(apperrors.ErrNotFound)
	repo.On("GetByID", ctx, "booking-123").Return(decided, nil)

	booking, err := svc.RespondToBooking(ctx, "booking-123", domain.BookingStatusConfirmed, "Second thoughts")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	repo.AssertExpectations(t)
}

func TestRespondToBooking_NotFound(t *testing.T) {
	repo := new(mockBookingRepository)
	experiences := new(mockExperienceRepository)
	svc := newBookingTestService(repo, experiences)
	ctx := context.Background()

	repo.On("Respond", ctx, "nonexistent", domain.BookingStatusConfirmed, "message").Return(apperrors.ErrNotFound)
	repo.On("GetByID", ctx, "nonexistent").Return(nil, apperrors.ErrNotFound)

	booking, err := svc.RespondToBooking(ctx, "nonexistent", domain.BookingStatusConfirmed, "message")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}
