package domain

import (
	"time"
)

// Side is the team a subject played on. Radiant is the first team.
type Side string

const (
	FirstTeam  Side = "first-team"
	SecondTeam Side = "second-team"
)

// Player slots below 128 belong to the first team.
const secondTeamSlotOffset = 128

func SideFromSlot(playerSlot int) Side {
	if playerSlot < secondTeamSlotOffset {
		return FirstTeam
	}
	return SecondTeam
}

type Provenance string

const (
	ProvenancePrimary   Provenance = "primary"
	ProvenanceSecondary Provenance = "secondary"
	ProvenanceMerged    Provenance = "merged"
)

// SourceProfile is one provider's view of a subject. Nil pointers mean the
// provider did not report the field.
type SourceProfile struct {
	AccountID       int64
	DisplayName     string
	AvatarURL       string
	ProfileURL      string
	Public          *bool
	RatingEstimate  *int
	PartyRating     *int
	SoloRating      *int
	RankTier        *int
	LeaderboardRank *int
	Source          Provenance
}

// Usable reports whether the provider identified the subject at all.
func (p *SourceProfile) Usable() bool {
	return p != nil && (p.DisplayName != "" || p.AccountID != 0)
}

type CanonicalProfile struct {
	SubjectID       int64
	DisplayName     string
	AvatarURL       string
	ProfileURL      string
	Public          *bool
	Rating          *int
	RankTier        *int
	RatingEstimate  *int
	PartyRating     *int
	SoloRating      *int
	LeaderboardRank *int
	Complete        bool
	Provenance      Provenance
}

type CanonicalMatch struct {
	MatchID      int64
	StartTime    int64 // unix seconds
	Side         Side
	FirstTeamWon bool
	HeroID       int
	Lane         int
	Kills        int
	Deaths       int
	Assists      int
	GPM          int
	XPM          int
	Provenance   Provenance
}

// Won applies the outcome test: the subject's side matches the winning side.
func (m CanonicalMatch) Won() bool {
	return (m.Side == FirstTeam && m.FirstTeamWon) || (m.Side == SecondTeam && !m.FirstTeamWon)
}

func (m CanonicalMatch) StartedAt() time.Time {
	return time.Unix(m.StartTime, 0)
}

// MatchDetail is a full match as reported by the secondary provider.
type MatchDetail struct {
	MatchID      int64
	StartTime    int64
	FirstTeamWon bool
	Participants []Participant
}

type Participant struct {
	AccountID  int64
	PlayerSlot int
	HeroID     int
	Lane       int
	Kills      int
	Deaths     int
	Assists    int
	GPM        int
	XPM        int
}

type TrackedSubject struct {
	GroupID              string
	SubjectID            int64
	LastRating           int
	NotificationsEnabled bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type TierChangeEvent struct {
	SubjectID  int64
	GroupID    string
	OldRating  int
	NewRating  int
	OldTier    int
	NewTier    int
	DetectedAt time.Time
}

func (e TierChangeEvent) Promoted() bool {
	return e.NewRating > e.OldRating
}

type RatingChangeSource string

const (
	RatingSourceRegister   RatingChangeSource = "register"
	RatingSourceRefresh    RatingChangeSource = "refresh"
	RatingSourceTierChange RatingChangeSource = "tier_change"
)

type RatingChange struct {
	ID        string // nanoid
	GroupID   string
	SubjectID int64
	OldRating int
	NewRating int
	OldTier   int
	NewTier   int
	Source    RatingChangeSource
	CreatedAt time.Time
}

type Hero struct {
	ID   int
	Name string
}
