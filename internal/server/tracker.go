package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dota-tracker/internal/analytics"
	"dota-tracker/internal/api"
	"dota-tracker/internal/domain"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ServiceName = "dotatracker.v1.TrackerService"

// TrackerPath is the prefix every procedure is mounted under.
const TrackerPath = "/" + ServiceName + "/"

const (
	GetProfileProcedure          = TrackerPath + "GetProfile"
	GetMatchesProcedure          = TrackerPath + "GetMatches"
	ComputeAnalyticsProcedure    = TrackerPath + "ComputeAnalytics"
	CompareProcedure             = TrackerPath + "Compare"
	RegisterSubjectProcedure     = TrackerPath + "RegisterSubject"
	UnregisterSubjectProcedure   = TrackerPath + "UnregisterSubject"
	ToggleNotificationsProcedure = TrackerPath + "ToggleNotifications"
	ListSubjectsProcedure        = TrackerPath + "ListSubjects"
	RatingHistoryProcedure       = TrackerPath + "RatingHistory"
	PollOnceProcedure            = TrackerPath + "PollOnce"
)

type Tracker interface {
	GetCanonicalProfile(ctx context.Context, subjectID int64) (*domain.CanonicalProfile, error)
	GetCanonicalMatches(ctx context.Context, subjectID int64, limit int) ([]domain.CanonicalMatch, error)
	ComputeAnalytics(ctx context.Context, subjectID int64) (*domain.AnalyticsSummary, error)
	Compare(ctx context.Context, first, second int64) (*domain.Comparison, error)
	RegisterSubject(ctx context.Context, groupID string, subjectID int64) (int, error)
	UnregisterSubject(ctx context.Context, groupID string, subjectID int64) error
	ToggleNotifications(ctx context.Context, groupID string, subjectID int64) (bool, error)
	ListSubjects(ctx context.Context, groupID string) ([]domain.TrackedSubject, error)
	RatingHistory(ctx context.Context, groupID string, subjectID int64, limit int) ([]domain.RatingChange, error)
}

type Poller interface {
	PollOnce(ctx context.Context, groupID string) ([]domain.TierChangeEvent, error)
}

type TrackerServer struct {
	tracker Tracker
	poller  Poller
	tiers   *analytics.Tiers
	logger  zerolog.Logger
}

func NewTrackerServer(tracker Tracker, poller Poller, tiers *analytics.Tiers, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{tracker: tracker, poller: poller, tiers: tiers, logger: logger}
}

// Handler mounts every procedure and returns the path prefix to register the
// handler under.
func (s *TrackerServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetProfileProcedure, connect.NewUnaryHandler(GetProfileProcedure, s.GetProfile, opts...))
	mux.Handle(GetMatchesProcedure, connect.NewUnaryHandler(GetMatchesProcedure, s.GetMatches, opts...))
	mux.Handle(ComputeAnalyticsProcedure, connect.NewUnaryHandler(ComputeAnalyticsProcedure, s.ComputeAnalytics, opts...))
	mux.Handle(CompareProcedure, connect.NewUnaryHandler(CompareProcedure, s.Compare, opts...))
	mux.Handle(RegisterSubjectProcedure, connect.NewUnaryHandler(RegisterSubjectProcedure, s.RegisterSubject, opts...))
	mux.Handle(UnregisterSubjectProcedure, connect.NewUnaryHandler(UnregisterSubjectProcedure, s.UnregisterSubject, opts...))
	mux.Handle(ToggleNotificationsProcedure, connect.NewUnaryHandler(ToggleNotificationsProcedure, s.ToggleNotifications, opts...))
	mux.Handle(ListSubjectsProcedure, connect.NewUnaryHandler(ListSubjectsProcedure, s.ListSubjects, opts...))
	mux.Handle(RatingHistoryProcedure, connect.NewUnaryHandler(RatingHistoryProcedure, s.RatingHistory, opts...))
	mux.Handle(PollOnceProcedure, connect.NewUnaryHandler(PollOnceProcedure, s.PollOnce, opts...))
	return TrackerPath, mux
}

// toConnectError maps the domain taxonomy onto connect codes. A subject that
// no source knows and a subject no source could serve both read as not found
// to callers.
func (s *TrackerServer) toConnectError(ctx context.Context, op string, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnavailable):
		code = connect.CodeNotFound
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &s.logger
	}
	logger.Warn().Err(err).Str("procedure", op).Str("code", code.String()).Msg("request failed")
	return connect.NewError(code, err)
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}

func parseAccount(field, value string) (int64, error) {
	id, err := api.ParseAccountID(value)
	if err != nil {
		return 0, invalidArgument(fmt.Errorf("%s: %w", field, err))
	}
	return id, nil
}

func parseGroup(groupID string) (string, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return "", invalidArgument(errors.New("groupId is required"))
	}
	return groupID, nil
}

func parseLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, invalidArgument(fmt.Errorf("limit must not be negative, got %d", limit))
	}
	return limit, nil
}

func (s *TrackerServer) GetProfile(ctx context.Context, req *connect.Request[ProfileRequest]) (*connect.Response[ProfileResponse], error) {
	id, err := parseAccount("accountId", req.Msg.AccountID)
	if err != nil {
		return nil, err
	}

	profile, err := s.tracker.GetCanonicalProfile(ctx, id)
	if err != nil {
		return nil, s.toConnectError(ctx, "GetProfile", err)
	}
	return connect.NewResponse(toProfile(profile, s.tiers)), nil
}

func (s *TrackerServer) GetMatches(ctx context.Context, req *connect.Request[MatchesRequest]) (*connect.Response[MatchesResponse], error) {
	id, err := parseAccount("accountId", req.Msg.AccountID)
	if err != nil {
		return nil, err
	}
	limit, err := parseLimit(req.Msg.Limit)
	if err != nil {
		return nil, err
	}

	matches, err := s.tracker.GetCanonicalMatches(ctx, id, limit)
	if err != nil {
		return nil, s.toConnectError(ctx, "GetMatches", err)
	}
	return connect.NewResponse(&MatchesResponse{Matches: toMatches(matches)}), nil
}

func (s *TrackerServer) ComputeAnalytics(ctx context.Context, req *connect.Request[ProfileRequest]) (*connect.Response[AnalyticsResponse], error) {
	id, err := parseAccount("accountId", req.Msg.AccountID)
	if err != nil {
		return nil, err
	}

	summary, err := s.tracker.ComputeAnalytics(ctx, id)
	if err != nil {
		return nil, s.toConnectError(ctx, "ComputeAnalytics", err)
	}
	return connect.NewResponse(toAnalytics(summary)), nil
}

func (s *TrackerServer) Compare(ctx context.Context, req *connect.Request[CompareRequest]) (*connect.Response[CompareResponse], error) {
	first, err := parseAccount("first", req.Msg.First)
	if err != nil {
		return nil, err
	}
	second, err := parseAccount("second", req.Msg.Second)
	if err != nil {
		return nil, err
	}

	cmp, err := s.tracker.Compare(ctx, first, second)
	if err != nil {
		return nil, s.toConnectError(ctx, "Compare", err)
	}
	return connect.NewResponse(&CompareResponse{
		First:  toComparisonEntry(cmp.First),
		Second: toComparisonEntry(cmp.Second),
	}), nil
}

func (s *TrackerServer) subjectKey(req SubjectRequest) (string, int64, error) {
	groupID, err := parseGroup(req.GroupID)
	if err != nil {
		return "", 0, err
	}
	id, err := parseAccount("accountId", req.AccountID)
	if err != nil {
		return "", 0, err
	}
	return groupID, id, nil
}

func (s *TrackerServer) RegisterSubject(ctx context.Context, req *connect.Request[SubjectRequest]) (*connect.Response[RegisterResponse], error) {
	groupID, id, err := s.subjectKey(*req.Msg)
	if err != nil {
		return nil, err
	}

	rating, err := s.tracker.RegisterSubject(ctx, groupID, id)
	if err != nil {
		return nil, s.toConnectError(ctx, "RegisterSubject", err)
	}
	return connect.NewResponse(&RegisterResponse{
		InitialRating: rating,
		Tier:          tierOf(s.tiers, s.tiers.RatingToTier(rating)),
	}), nil
}

func (s *TrackerServer) UnregisterSubject(ctx context.Context, req *connect.Request[SubjectRequest]) (*connect.Response[UnregisterResponse], error) {
	groupID, id, err := s.subjectKey(*req.Msg)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.UnregisterSubject(ctx, groupID, id); err != nil {
		return nil, s.toConnectError(ctx, "UnregisterSubject", err)
	}
	return connect.NewResponse(&UnregisterResponse{}), nil
}

func (s *TrackerServer) ToggleNotifications(ctx context.Context, req *connect.Request[SubjectRequest]) (*connect.Response[ToggleResponse], error) {
	groupID, id, err := s.subjectKey(*req.Msg)
	if err != nil {
		return nil, err
	}

	enabled, err := s.tracker.ToggleNotifications(ctx, groupID, id)
	if err != nil {
		return nil, s.toConnectError(ctx, "ToggleNotifications", err)
	}
	return connect.NewResponse(&ToggleResponse{NotificationsEnabled: enabled}), nil
}

func (s *TrackerServer) ListSubjects(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[SubjectsResponse], error) {
	groupID, err := parseGroup(req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	subjects, err := s.tracker.ListSubjects(ctx, groupID)
	if err != nil {
		return nil, s.toConnectError(ctx, "ListSubjects", err)
	}
	return connect.NewResponse(&SubjectsResponse{Subjects: toSubjects(subjects, s.tiers)}), nil
}

func (s *TrackerServer) RatingHistory(ctx context.Context, req *connect.Request[RatingHistoryRequest]) (*connect.Response[RatingHistoryResponse], error) {
	groupID, id, err := s.subjectKey(SubjectRequest{GroupID: req.Msg.GroupID, AccountID: req.Msg.AccountID})
	if err != nil {
		return nil, err
	}
	limit, err := parseLimit(req.Msg.Limit)
	if err != nil {
		return nil, err
	}

	changes, err := s.tracker.RatingHistory(ctx, groupID, id, limit)
	if err != nil {
		return nil, s.toConnectError(ctx, "RatingHistory", err)
	}
	return connect.NewResponse(&RatingHistoryResponse{Changes: toRatingChanges(changes, s.tiers)}), nil
}

func (s *TrackerServer) PollOnce(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[PollResponse], error) {
	groupID, err := parseGroup(req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	events, err := s.poller.PollOnce(ctx, groupID)
	if err != nil {
		return nil, s.toConnectError(ctx, "PollOnce", err)
	}
	return connect.NewResponse(&PollResponse{Events: toEvents(events, s.tiers)}), nil
}
