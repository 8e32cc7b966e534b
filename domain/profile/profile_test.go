package profile_test

import (
	"math"
	"strings"
	"testing"

	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/vector"
)

func axis(dim, i int) []float64 {
	v := make([]float64, dim)
	v[i] = 1
	return v
}

func TestCompose_WeightsByPresence(t *testing.T) {
	intent := axis(4, 0)
	resume := axis(4, 1)
	github := axis(4, 2)

	tests := []struct {
		name                   string
		intent, resume, github []float64
		wantRatios             []float64 // expected component ratios on axes 0,1,2
	}{
		{"all three", intent, resume, github, []float64{0.50, 0.30, 0.20}},
		{"intent and resume", intent, resume, nil, []float64{0.60, 0.40, 0}},
		{"intent and github", intent, nil, github, []float64{0.70, 0, 0.30}},
		{"resume and github", nil, resume, github, []float64{0, 0.60, 0.40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := profile.Compose(tt.intent, tt.resume, tt.github)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			if math.Abs(vector.Norm(got)-1) > 1e-12 {
				t.Errorf("norm = %v, want 1", vector.Norm(got))
			}
			// Orthogonal unit sources mean components keep the weight ratios.
			norm := vector.Norm(tt.wantRatios)
			for i, w := range tt.wantRatios {
				if math.Abs(got[i]-w/norm) > 1e-9 {
					t.Errorf("component %d = %v, want %v", i, got[i], w/norm)
				}
			}
		})
	}
}

func TestCompose_SingleSourceIsIdentity(t *testing.T) {
	src := []float64{3, 4, 0, 0}
	got, err := profile.Compose(nil, nil, src)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if math.Abs(got[0]-0.6) > 1e-12 || math.Abs(got[1]-0.8) > 1e-12 {
		t.Errorf("single source = %v, want unit [0.6 0.8]", got)
	}
}

func TestCompose_AllAbsent(t *testing.T) {
	got, err := profile.Compose(nil, nil, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil combined vector, got %v", got)
	}
}

func TestIntentSource_EmbedText(t *testing.T) {
	src := profile.NewIntentSource(
		"I want to fix tricky concurrency bugs",
		[]string{"backend", "devops"},
		[]string{"go", "rust"},
	)
	want := "backend, devops. I want to fix tricky concurrency bugs"
	if got := src.EmbedText(); got != want {
		t.Errorf("EmbedText = %q, want %q", got, want)
	}

	// Languages feed filters, never the embedding text.
	if strings.Contains(src.EmbedText(), "rust") {
		t.Errorf("languages leaked into embed text: %q", src.EmbedText())
	}
}

func TestNewUserProfile_Defaults(t *testing.T) {
	p := profile.NewUserProfile("u1")
	if p.Prefs().MinHeat() != profile.DefaultMinHeat {
		t.Errorf("min heat = %v, want %v", p.Prefs().MinHeat(), profile.DefaultMinHeat)
	}
	if p.OnboardingStatus() != profile.OnboardingNotStarted {
		t.Errorf("onboarding = %s", p.OnboardingStatus())
	}
	if p.IsPersonalizable() {
		t.Error("empty profile should not be personalizable")
	}
	if p.IsCalculating() {
		t.Error("fresh profile should not be calculating")
	}
}

func TestUserProfile_Recompose(t *testing.T) {
	p := profile.NewUserProfile("u1").
		WithIntent(profile.NewIntentSource("text", []string{"backend"}, nil), axis(4, 0)).
		WithGitHub(profile.NewGitHubSource("octocat", []string{"go"}, nil), axis(4, 2))

	p, err := p.Recompose()
	if err != nil {
		t.Fatalf("Recompose: %v", err)
	}
	if !p.IsPersonalizable() {
		t.Fatal("expected combined vector after recompose")
	}
	combined := p.CombinedVector()
	// intent+github weights are 0.70/0.30.
	if math.Abs(combined[0]/combined[2]-0.70/0.30) > 1e-9 {
		t.Errorf("component ratio = %v, want %v", combined[0]/combined[2], 0.70/0.30)
	}
}

func TestUserProfile_CopySemantics(t *testing.T) {
	vec := axis(4, 0)
	p := profile.NewUserProfile("u1").WithIntent(profile.NewIntentSource("t", nil, nil), vec)
	vec[0] = 99
	if p.IntentVector()[0] != 1 {
		t.Error("profile shares the caller's vector")
	}

	flagged := p.WithCalculating(true)
	if p.IsCalculating() {
		t.Error("WithCalculating mutated the receiver")
	}
	if !flagged.IsCalculating() {
		t.Error("flag not set on the copy")
	}
}

func TestPreferences_MinHeatFallback(t *testing.T) {
	if got := profile.NewPreferences(nil, nil, 0).MinHeat(); got != profile.DefaultMinHeat {
		t.Errorf("zero min heat = %v, want default", got)
	}
	if got := profile.NewPreferences(nil, nil, 0.8).MinHeat(); got != 0.8 {
		t.Errorf("explicit min heat = %v, want 0.8", got)
	}
}

func TestUserProfile_EntityAccessors(t *testing.T) {
	p := profile.NewUserProfile("u1").
		WithIntent(profile.NewIntentSource("", []string{"backend"}, nil), nil).
		WithResume(profile.NewResumeSource([]string{"kubernetes"}, []string{"sre"}), nil).
		WithGitHub(profile.NewGitHubSource("octocat", []string{"go"}, []string{"cli"}), nil).
		WithPreferences(profile.NewPreferences([]string{"rust"}, []string{"databases"}, 0.6))

	if p.IntentStackAreas()[0] != "backend" ||
		p.ResumeSkills()[0] != "kubernetes" ||
		p.ResumeJobTitles()[0] != "sre" ||
		p.GitHubLanguages()[0] != "go" ||
		p.GitHubTopics()[0] != "cli" ||
		p.PreferredLanguages()[0] != "rust" ||
		p.PreferredTopics()[0] != "databases" {
		t.Error("entity accessors do not surface their sources")
	}
}
