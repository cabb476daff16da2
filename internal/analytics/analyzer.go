// Package analytics derives match statistics and tier information from
// canonical records. Everything here is pure: the same inputs and clock
// always produce the same summary, and no input makes it fail.
package analytics

import (
	"math"
	"sort"
	"time"

	"dota-tracker/internal/constants"
	"dota-tracker/internal/domain"
)

const (
	roleUnknown   = "Unknown"
	roleVersatile = "Versatile"
)

func DefaultLaneRoles() map[int]string {
	return map[int]string{
		1: "Safe Lane (Carry)",
		2: "Mid Lane",
		3: "Off Lane",
		4: "Jungle",
		5: "Roaming",
	}
}

type Analyzer struct {
	tiers     *Tiers
	heroNames map[int]string
	laneRoles map[int]string
	now       func() time.Time
	loc       *time.Location
}

type Option func(*Analyzer)

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) { a.loc = loc }
}

// NewAnalyzer copies the hero table so later mutation by the caller cannot
// leak into summaries.
func NewAnalyzer(tiers *Tiers, heroNames map[int]string, opts ...Option) *Analyzer {
	a := &Analyzer{
		tiers:     tiers,
		heroNames: copyTable(heroNames),
		laneRoles: DefaultLaneRoles(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func copyTable(in map[int]string) map[int]string {
	out := make(map[int]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (a *Analyzer) Tiers() *Tiers {
	return a.tiers
}

func (a *Analyzer) HeroName(heroID int) string {
	return a.heroNames[heroID]
}

func (a *Analyzer) Analyze(subjectID int64, profile *domain.CanonicalProfile, matches []domain.CanonicalMatch) domain.AnalyticsSummary {
	wins := countWins(matches)
	summary := domain.AnalyticsSummary{
		SubjectID:     subjectID,
		TotalMatches:  len(matches),
		Wins:          wins,
		WinRate:       winRate(wins, len(matches)),
		FirstMatch:    a.matchRef(firstMatch(matches)),
		RecentPattern: RecentPattern(matches, constants.RecentPatternSize),
		Averages:      CalculateAverages(matches),
		BestHero:      a.bestHero(matches),
		HeroStreak:    a.heroStreak(matches),
		SuggestedRole: a.SuggestRole(matches),
	}
	if profile != nil {
		summary.DisplayName = profile.DisplayName
		summary.AvatarURL = profile.AvatarURL
	}

	today, count := a.todayFirstMatch(matches)
	summary.TodayFirstMatch = a.matchRef(today)
	summary.TodayCount = count

	current := 0
	if rating := a.tiers.CurrentRating(profile); rating != nil {
		current = *rating
	}
	summary.CurrentTier = a.tierInfo(current)
	summary.PeakTier = a.tierInfo(a.tiers.PeakRating(profile))

	return summary
}

func (a *Analyzer) Compare(first, second ComparisonInput) domain.Comparison {
	return domain.Comparison{
		First:  a.comparisonEntry(first),
		Second: a.comparisonEntry(second),
	}
}

type ComparisonInput struct {
	SubjectID int64
	Profile   *domain.CanonicalProfile
	Matches   []domain.CanonicalMatch
}

func (a *Analyzer) comparisonEntry(in ComparisonInput) domain.ComparisonEntry {
	wins := countWins(in.Matches)
	entry := domain.ComparisonEntry{
		SubjectID:     in.SubjectID,
		TotalMatches:  len(in.Matches),
		Wins:          wins,
		WinRate:       winRate(wins, len(in.Matches)),
		Averages:      CalculateAverages(in.Matches),
		RecentPattern: RecentPattern(in.Matches, constants.RecentPatternSize),
		BestHero:      a.bestHero(in.Matches),
	}
	if in.Profile != nil {
		entry.DisplayName = in.Profile.DisplayName
	}
	return entry
}

func (a *Analyzer) tierInfo(rating int) domain.TierInfo {
	code := a.tiers.RatingToTier(rating)
	return domain.TierInfo{Code: code, Name: a.tiers.Name(code), Rating: rating}
}

func (a *Analyzer) matchRef(m *domain.CanonicalMatch) *domain.MatchRef {
	if m == nil {
		return nil
	}
	return &domain.MatchRef{
		MatchID:   m.MatchID,
		StartedAt: m.StartedAt().In(a.loc),
		HeroID:    m.HeroID,
		HeroName:  a.HeroName(m.HeroID),
		Outcome:   domain.OutcomeOf(m.Won()),
	}
}

func countWins(matches []domain.CanonicalMatch) int {
	wins := 0
	for _, m := range matches {
		if m.Won() {
			wins++
		}
	}
	return wins
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// firstMatch returns the earliest match; ties keep the first encountered.
func firstMatch(matches []domain.CanonicalMatch) *domain.CanonicalMatch {
	var first *domain.CanonicalMatch
	for i := range matches {
		if first == nil || matches[i].StartTime < first.StartTime {
			first = &matches[i]
		}
	}
	return first
}

func (a *Analyzer) todayFirstMatch(matches []domain.CanonicalMatch) (*domain.CanonicalMatch, int) {
	y, m, d := a.now().In(a.loc).Date()

	var today []domain.CanonicalMatch
	for _, match := range matches {
		my, mm, md := match.StartedAt().In(a.loc).Date()
		if my == y && mm == m && md == d {
			today = append(today, match)
		}
	}
	if len(today) == 0 {
		return nil, 0
	}
	return firstMatch(today), len(today)
}

// mostRecentFirst returns a copy sorted by start time descending. Equal
// start times keep their input order.
func mostRecentFirst(matches []domain.CanonicalMatch) []domain.CanonicalMatch {
	sorted := make([]domain.CanonicalMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime > sorted[j].StartTime
	})
	return sorted
}

func RecentPattern(matches []domain.CanonicalMatch, n int) []domain.Outcome {
	sorted := mostRecentFirst(matches)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	pattern := make([]domain.Outcome, 0, len(sorted))
	for _, m := range sorted {
		pattern = append(pattern, domain.OutcomeOf(m.Won()))
	}
	return pattern
}

// CalculateAverages only counts matches with positive GPM; a match without
// gold telemetry is dropped from all three averages.
func CalculateAverages(matches []domain.CanonicalMatch) domain.Averages {
	var n, gpm, xpm, kills, deaths, assists int
	for _, m := range matches {
		if m.GPM <= 0 {
			continue
		}
		n++
		gpm += m.GPM
		xpm += m.XPM
		kills += m.Kills
		deaths += m.Deaths
		assists += m.Assists
	}
	if n == 0 {
		return domain.Averages{}
	}

	kda := float64(kills+assists) / float64(max(deaths, 1))
	return domain.Averages{
		GPM: gpm / n,
		XPM: xpm / n,
		KDA: math.Round(kda*100) / 100,
	}
}

type heroRecord struct {
	heroID int
	wins   int
	games  int
}

func (a *Analyzer) bestHero(matches []domain.CanonicalMatch) *domain.HeroPerformance {
	index := map[int]int{}
	var records []heroRecord
	for _, m := range matches {
		if m.HeroID == 0 {
			continue
		}
		i, ok := index[m.HeroID]
		if !ok {
			i = len(records)
			index[m.HeroID] = i
			records = append(records, heroRecord{heroID: m.HeroID})
		}
		records[i].games++
		if m.Won() {
			records[i].wins++
		}
	}

	var best *heroRecord
	for i := range records {
		r := &records[i]
		if r.games < constants.BestHeroMinGames {
			continue
		}
		// cross-multiplied so equal rates compare exactly; ties keep the earlier hero
		if best == nil || r.wins*best.games > best.wins*r.games {
			best = r
		}
	}
	if best == nil {
		return nil
	}

	rate := float64(best.wins) / float64(best.games) * 100
	return &domain.HeroPerformance{
		HeroID:   best.heroID,
		HeroName: a.HeroName(best.heroID),
		WinRate:  math.Round(rate*10) / 10,
		Games:    best.games,
	}
}

// heroStreak reports only the current run: the leading block of matches,
// most recent first, played on one hero.
func (a *Analyzer) heroStreak(matches []domain.CanonicalMatch) *domain.HeroStreak {
	if len(matches) < constants.HeroStreakMinLength {
		return nil
	}

	sorted := mostRecentFirst(matches)
	hero := sorted[0].HeroID
	var results []domain.Outcome
	for _, m := range sorted {
		if m.HeroID != hero {
			break
		}
		results = append(results, domain.OutcomeOf(m.Won()))
	}
	if len(results) < constants.HeroStreakMinLength {
		return nil
	}

	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return &domain.HeroStreak{
		HeroID:   hero,
		HeroName: a.HeroName(hero),
		Count:    len(results),
		Results:  results,
	}
}

func (a *Analyzer) SuggestRole(matches []domain.CanonicalMatch) string {
	counts := map[int]int{}
	var order []int
	for _, m := range matches {
		if m.Lane == 0 {
			continue
		}
		if _, ok := counts[m.Lane]; !ok {
			order = append(order, m.Lane)
		}
		counts[m.Lane]++
	}
	if len(order) == 0 {
		return roleUnknown
	}

	mode := order[0]
	for _, lane := range order[1:] {
		if counts[lane] > counts[mode] {
			mode = lane
		}
	}
	if role, ok := a.laneRoles[mode]; ok {
		return role
	}
	return roleVersatile
}
