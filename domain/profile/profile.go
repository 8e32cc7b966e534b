// Package profile holds the user profile domain: the three embedding
// sources, combined-vector composition and the preference filters the feed
// applies.
package profile

import (
	"strings"
	"time"

	"github.com/gimlabs/gim/domain/vector"
)

// DefaultMinHeat is the q-score floor applied to personalized feeds when
// the user has not tuned it.
const DefaultMinHeat = 0.6

// Combined-vector weights per source-presence combination. Sources are
// L2-normalized before the weighted sum and the result is normalized again.
var (
	weightsAll          = []float64{0.50, 0.30, 0.20}
	weightsIntentResume = []float64{0.60, 0.40}
	weightsIntentGitHub = []float64{0.70, 0.30}
	weightsResumeGitHub = []float64{0.60, 0.40}
	weightsSingle       = []float64{1.0}
)

// OnboardingStatus tracks how far a user got through profile setup.
type OnboardingStatus string

// OnboardingStatus values.
const (
	OnboardingNotStarted OnboardingStatus = "not_started"
	OnboardingInProgress OnboardingStatus = "in_progress"
	OnboardingCompleted  OnboardingStatus = "completed"
)

// VectorSource names one of the three profile embedding sources.
type VectorSource string

// VectorSource values.
const (
	SourceIntent VectorSource = "intent"
	SourceResume VectorSource = "resume"
	SourceGitHub VectorSource = "github"
)

// IntentSource is what the user told us they want to work on.
type IntentSource struct {
	text       string
	stackAreas []string
	languages  []string
}

// NewIntentSource creates an IntentSource.
func NewIntentSource(text string, stackAreas, languages []string) IntentSource {
	return IntentSource{
		text:       text,
		stackAreas: copyStrings(stackAreas),
		languages:  copyStrings(languages),
	}
}

// Text returns the free-text intent.
func (s IntentSource) Text() string { return s.text }

// StackAreas returns the chosen stack areas.
func (s IntentSource) StackAreas() []string { return copyStrings(s.stackAreas) }

// Languages returns the chosen languages. They feed filter predicates,
// never the embedding text.
func (s IntentSource) Languages() []string { return copyStrings(s.languages) }

// IsZero reports whether the source is empty.
func (s IntentSource) IsZero() bool {
	return s.text == "" && len(s.stackAreas) == 0 && len(s.languages) == 0
}

// EmbedText renders the text the intent vector is computed from:
// the comma-joined stack areas, a period, then the free text.
func (s IntentSource) EmbedText() string {
	return strings.Join(s.stackAreas, ", ") + ". " + s.text
}

// ResumeSource is what the user's resume says about them.
type ResumeSource struct {
	skills    []string
	jobTitles []string
}

// NewResumeSource creates a ResumeSource.
func NewResumeSource(skills, jobTitles []string) ResumeSource {
	return ResumeSource{
		skills:    copyStrings(skills),
		jobTitles: copyStrings(jobTitles),
	}
}

// Skills returns the normalized resume skills.
func (s ResumeSource) Skills() []string { return copyStrings(s.skills) }

// JobTitles returns the normalized resume job titles.
func (s ResumeSource) JobTitles() []string { return copyStrings(s.jobTitles) }

// IsZero reports whether the source is empty.
func (s ResumeSource) IsZero() bool {
	return len(s.skills) == 0 && len(s.jobTitles) == 0
}

// EmbedText renders the text the resume vector is computed from.
func (s ResumeSource) EmbedText() string {
	parts := make([]string, 0, 2)
	if len(s.jobTitles) > 0 {
		parts = append(parts, strings.Join(s.jobTitles, ", "))
	}
	if len(s.skills) > 0 {
		parts = append(parts, strings.Join(s.skills, ", "))
	}
	return strings.Join(parts, ". ")
}

// GitHubSource is what the user's GitHub activity says about them.
type GitHubSource struct {
	username  string
	languages []string
	topics    []string
}

// NewGitHubSource creates a GitHubSource.
func NewGitHubSource(username string, languages, topics []string) GitHubSource {
	return GitHubSource{
		username:  username,
		languages: copyStrings(languages),
		topics:    copyStrings(topics),
	}
}

// Username returns the linked GitHub username.
func (s GitHubSource) Username() string { return s.username }

// Languages returns the languages observed in the user's repositories.
func (s GitHubSource) Languages() []string { return copyStrings(s.languages) }

// Topics returns the topics observed in the user's repositories.
func (s GitHubSource) Topics() []string { return copyStrings(s.topics) }

// IsZero reports whether the source is empty.
func (s GitHubSource) IsZero() bool {
	return s.username == "" && len(s.languages) == 0 && len(s.topics) == 0
}

// EmbedText renders the text the github vector is computed from.
func (s GitHubSource) EmbedText() string {
	parts := make([]string, 0, 2)
	if len(s.languages) > 0 {
		parts = append(parts, strings.Join(s.languages, ", "))
	}
	if len(s.topics) > 0 {
		parts = append(parts, strings.Join(s.topics, ", "))
	}
	return strings.Join(parts, ". ")
}

// Preferences are the feed filter knobs.
type Preferences struct {
	languages []string
	topics    []string
	minHeat   float64
}

// NewPreferences creates Preferences. Non-positive heat thresholds fall
// back to the default.
func NewPreferences(languages, topics []string, minHeat float64) Preferences {
	if minHeat <= 0 {
		minHeat = DefaultMinHeat
	}
	return Preferences{
		languages: copyStrings(languages),
		topics:    copyStrings(topics),
		minHeat:   minHeat,
	}
}

// Languages returns the preferred languages.
func (p Preferences) Languages() []string { return copyStrings(p.languages) }

// Topics returns the preferred topics.
func (p Preferences) Topics() []string { return copyStrings(p.topics) }

// MinHeat returns the q-score floor for personalized results.
func (p Preferences) MinHeat() float64 { return p.minHeat }

// UserProfile is one user's sources, vectors and preferences.
type UserProfile struct {
	userID           string
	intent           IntentSource
	resume           ResumeSource
	github           GitHubSource
	prefs            Preferences
	intentVector     []float64
	resumeVector     []float64
	githubVector     []float64
	combinedVector   []float64
	onboardingStatus OnboardingStatus
	isCalculating    bool
	updatedAt        time.Time
}

// NewUserProfile creates an empty profile with default preferences, as
// minted lazily on first access.
func NewUserProfile(userID string) UserProfile {
	return UserProfile{
		userID:           userID,
		prefs:            NewPreferences(nil, nil, DefaultMinHeat),
		onboardingStatus: OnboardingNotStarted,
	}
}

// ReconstructUserProfile recreates a profile from persistence.
func ReconstructUserProfile(
	userID string,
	intent IntentSource,
	resume ResumeSource,
	github GitHubSource,
	prefs Preferences,
	intentVector []float64,
	resumeVector []float64,
	githubVector []float64,
	combinedVector []float64,
	onboardingStatus OnboardingStatus,
	isCalculating bool,
	updatedAt time.Time,
) UserProfile {
	return UserProfile{
		userID:           userID,
		intent:           intent,
		resume:           resume,
		github:           github,
		prefs:            prefs,
		intentVector:     copyFloats(intentVector),
		resumeVector:     copyFloats(resumeVector),
		githubVector:     copyFloats(githubVector),
		combinedVector:   copyFloats(combinedVector),
		onboardingStatus: onboardingStatus,
		isCalculating:    isCalculating,
		updatedAt:        updatedAt,
	}
}

// UserID returns the owning user.
func (p UserProfile) UserID() string { return p.userID }

// Intent returns the intent source.
func (p UserProfile) Intent() IntentSource { return p.intent }

// Resume returns the resume source.
func (p UserProfile) Resume() ResumeSource { return p.resume }

// GitHub returns the github source.
func (p UserProfile) GitHub() GitHubSource { return p.github }

// Prefs returns the feed preferences.
func (p UserProfile) Prefs() Preferences { return p.prefs }

// IntentVector returns the intent embedding, nil when absent.
func (p UserProfile) IntentVector() []float64 { return copyFloats(p.intentVector) }

// ResumeVector returns the resume embedding, nil when absent.
func (p UserProfile) ResumeVector() []float64 { return copyFloats(p.resumeVector) }

// GitHubVector returns the github embedding, nil when absent.
func (p UserProfile) GitHubVector() []float64 { return copyFloats(p.githubVector) }

// CombinedVector returns the composed embedding, nil when no source has
// been embedded yet.
func (p UserProfile) CombinedVector() []float64 { return copyFloats(p.combinedVector) }

// OnboardingStatus returns how far the user got through setup.
func (p UserProfile) OnboardingStatus() OnboardingStatus { return p.onboardingStatus }

// IsCalculating reports whether a source embedding recompute is running.
func (p UserProfile) IsCalculating() bool { return p.isCalculating }

// UpdatedAt returns the last mutation time.
func (p UserProfile) UpdatedAt() time.Time { return p.updatedAt }

// IsPersonalizable reports whether the feed can rank against this profile.
func (p UserProfile) IsPersonalizable() bool { return p.combinedVector != nil }

// WithIntent returns a copy with the intent source and vector replaced.
func (p UserProfile) WithIntent(src IntentSource, vec []float64) UserProfile {
	p.intent = src
	p.intentVector = copyFloats(vec)
	return p
}

// WithResume returns a copy with the resume source and vector replaced.
func (p UserProfile) WithResume(src ResumeSource, vec []float64) UserProfile {
	p.resume = src
	p.resumeVector = copyFloats(vec)
	return p
}

// WithGitHub returns a copy with the github source and vector replaced.
func (p UserProfile) WithGitHub(src GitHubSource, vec []float64) UserProfile {
	p.github = src
	p.githubVector = copyFloats(vec)
	return p
}

// WithPreferences returns a copy with the preferences replaced.
func (p UserProfile) WithPreferences(prefs Preferences) UserProfile {
	p.prefs = prefs
	return p
}

// WithOnboardingStatus returns a copy in the given onboarding state.
func (p UserProfile) WithOnboardingStatus(s OnboardingStatus) UserProfile {
	p.onboardingStatus = s
	return p
}

// WithCalculating returns a copy with the recompute flag set.
func (p UserProfile) WithCalculating(v bool) UserProfile {
	p.isCalculating = v
	return p
}

// WithUpdatedAt returns a copy stamped with the given time.
func (p UserProfile) WithUpdatedAt(t time.Time) UserProfile {
	p.updatedAt = t
	return p
}

// Recompose returns a copy whose combined vector is recomputed from the
// source vectors under the presence-dependent weights.
func (p UserProfile) Recompose() (UserProfile, error) {
	combined, err := Compose(p.intentVector, p.resumeVector, p.githubVector)
	if err != nil {
		return p, err
	}
	p.combinedVector = combined
	return p, nil
}

// Compose combines the present source vectors into a unit-norm vector.
// All absent returns nil without error.
func Compose(intent, resume, github []float64) ([]float64, error) {
	var vectors [][]float64
	var weights []float64
	switch {
	case intent != nil && resume != nil && github != nil:
		vectors, weights = [][]float64{intent, resume, github}, weightsAll
	case intent != nil && resume != nil:
		vectors, weights = [][]float64{intent, resume}, weightsIntentResume
	case intent != nil && github != nil:
		vectors, weights = [][]float64{intent, github}, weightsIntentGitHub
	case resume != nil && github != nil:
		vectors, weights = [][]float64{resume, github}, weightsResumeGitHub
	case intent != nil:
		vectors, weights = [][]float64{intent}, weightsSingle
	case resume != nil:
		vectors, weights = [][]float64{resume}, weightsSingle
	case github != nil:
		vectors, weights = [][]float64{github}, weightsSingle
	default:
		return nil, nil
	}
	return vector.WeightedSum(vectors, weights)
}

// Why-this entity accessors. Together they form the whitelisted entity
// set the feed explains recommendations from.

// PreferredLanguages returns the preference languages.
func (p UserProfile) PreferredLanguages() []string { return p.prefs.Languages() }

// GitHubLanguages returns the github source languages.
func (p UserProfile) GitHubLanguages() []string { return p.github.Languages() }

// IntentStackAreas returns the intent stack areas.
func (p UserProfile) IntentStackAreas() []string { return p.intent.StackAreas() }

// ResumeSkills returns the resume skills.
func (p UserProfile) ResumeSkills() []string { return p.resume.Skills() }

// ResumeJobTitles returns the resume job titles.
func (p UserProfile) ResumeJobTitles() []string { return p.resume.JobTitles() }

// PreferredTopics returns the preference topics.
func (p UserProfile) PreferredTopics() []string { return p.prefs.Topics() }

// GitHubTopics returns the github source topics.
func (p UserProfile) GitHubTopics() []string { return p.github.Topics() }

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
