package persistence

import (
	"encoding/json"
	"time"

	"github.com/gimlabs/gim/domain/event"
	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/profile"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/task"
)

// RepoMapper maps between issue.Repository and RepoModel.
type RepoMapper struct{}

// ToDomain converts a RepoModel to a domain Repository.
func (RepoMapper) ToDomain(e RepoModel) issue.Repository {
	var lastScrapedAt time.Time
	if e.LastScrapedAt != nil {
		lastScrapedAt = *e.LastScrapedAt
	}
	return issue.ReconstructRepository(
		e.NodeID,
		e.FullName,
		e.PrimaryLanguage,
		e.Topics,
		e.StargazerCount,
		e.IssueVelocityWeek,
		lastScrapedAt,
	)
}

// ToModel converts a domain Repository to a RepoModel. The shard hour is
// derived here so the collector's shard lookup stays an indexed equality.
func (RepoMapper) ToModel(r issue.Repository) RepoModel {
	var lastScrapedAt *time.Time
	if !r.LastScrapedAt().IsZero() {
		t := r.LastScrapedAt()
		lastScrapedAt = &t
	}
	return RepoModel{
		NodeID:            r.NodeID(),
		FullName:          r.FullName(),
		PrimaryLanguage:   r.PrimaryLanguage(),
		Topics:            StringList(r.Topics()),
		StargazerCount:    r.StargazerCount(),
		IssueVelocityWeek: r.IssueVelocityWeek(),
		ShardHour:         r.ShardHour(),
		LastScrapedAt:     lastScrapedAt,
	}
}

// IssueMapper maps between issue.Issue and IssueModel.
type IssueMapper struct{}

// ToDomain converts an IssueModel to a domain Issue.
func (IssueMapper) ToDomain(e IssueModel) issue.Issue {
	var ingestedAt time.Time
	if e.IngestedAt != nil {
		ingestedAt = *e.IngestedAt
	}
	return issue.ReconstructIssue(
		e.NodeID,
		e.RepoID,
		e.Title,
		e.BodyText,
		e.Labels,
		issue.State(e.State),
		e.HTMLURL,
		scoring.NewQComponents(e.HasCode, e.HasTemplateHeaders, e.TechStackWeight),
		e.QScore,
		e.SurvivalScore,
		e.ContentHash,
		e.Embedding.FloatsOrNil(),
		e.GitHubCreatedAt,
		ingestedAt,
	)
}

// ToModel converts a domain Issue to an IssueModel.
func (IssueMapper) ToModel(i issue.Issue) IssueModel {
	var ingestedAt *time.Time
	if !i.IngestedAt().IsZero() {
		t := i.IngestedAt()
		ingestedAt = &t
	}
	c := i.Components()
	return IssueModel{
		NodeID:             i.NodeID(),
		RepoID:             i.RepoID(),
		Title:              i.Title(),
		BodyText:           i.BodyText(),
		Labels:             StringList(i.Labels()),
		State:              string(i.State()),
		HTMLURL:            i.HTMLURL(),
		HasCode:            c.HasCode(),
		HasTemplateHeaders: c.HasTemplateHeaders(),
		TechStackWeight:    c.TechStackWeight(),
		QScore:             i.QScore(),
		SurvivalScore:      i.SurvivalScore(),
		ContentHash:        i.ContentHash(),
		Embedding:          NewEmbeddingColumn(i.Embedding()),
		GitHubCreatedAt:    i.GitHubCreatedAt(),
		IngestedAt:         ingestedAt,
	}
}

// PendingMapper maps between issue.PendingIssue and PendingIssueModel.
type PendingMapper struct{}

// ToDomain converts a PendingIssueModel to a domain PendingIssue.
func (PendingMapper) ToDomain(e PendingIssueModel) issue.PendingIssue {
	return issue.ReconstructPendingIssue(
		e.ID,
		e.NodeID,
		e.RepoID,
		e.Title,
		e.BodyText,
		e.Labels,
		issue.State(e.State),
		e.HTMLURL,
		scoring.NewQComponents(e.HasCode, e.HasTemplateHeaders, e.TechStackWeight),
		e.ContentHash,
		issue.PendingStatus(e.Status),
		e.Attempts,
		e.GitHubCreatedAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain PendingIssue to a PendingIssueModel.
func (PendingMapper) ToModel(p issue.PendingIssue) PendingIssueModel {
	c := p.Components()
	return PendingIssueModel{
		ID:                 p.ID(),
		NodeID:             p.NodeID(),
		RepoID:             p.RepoID(),
		Title:              p.Title(),
		BodyText:           p.BodyText(),
		Labels:             StringList(p.Labels()),
		State:              string(p.State()),
		HTMLURL:            p.HTMLURL(),
		HasCode:            c.HasCode(),
		HasTemplateHeaders: c.HasTemplateHeaders(),
		TechStackWeight:    c.TechStackWeight(),
		ContentHash:        p.ContentHash(),
		Status:             string(p.Status()),
		Attempts:           p.Attempts(),
		GitHubCreatedAt:    p.GitHubCreatedAt(),
		CreatedAt:          p.CreatedAt(),
		UpdatedAt:          p.UpdatedAt(),
	}
}

// ProfileMapper maps between profile.UserProfile and UserProfileModel.
type ProfileMapper struct{}

// ToDomain converts a UserProfileModel to a domain UserProfile.
func (ProfileMapper) ToDomain(e UserProfileModel) profile.UserProfile {
	return profile.ReconstructUserProfile(
		e.UserID,
		profile.NewIntentSource(e.IntentText, e.IntentStackAreas, e.IntentLanguages),
		profile.NewResumeSource(e.ResumeSkills, e.ResumeJobTitles),
		profile.NewGitHubSource(e.GitHubUsername, e.GitHubLanguages, e.GitHubTopics),
		profile.NewPreferences(e.PreferredLanguages, e.PreferredTopics, e.MinHeatThreshold),
		e.IntentVector.FloatsOrNil(),
		e.ResumeVector.FloatsOrNil(),
		e.GitHubVector.FloatsOrNil(),
		e.CombinedVector.FloatsOrNil(),
		profile.OnboardingStatus(e.OnboardingStatus),
		e.IsCalculating,
		e.UpdatedAt,
	)
}

// ToModel converts a domain UserProfile to a UserProfileModel.
func (ProfileMapper) ToModel(p profile.UserProfile) UserProfileModel {
	return UserProfileModel{
		UserID:             p.UserID(),
		IntentText:         p.Intent().Text(),
		IntentStackAreas:   StringList(p.Intent().StackAreas()),
		IntentLanguages:    StringList(p.Intent().Languages()),
		ResumeSkills:       StringList(p.Resume().Skills()),
		ResumeJobTitles:    StringList(p.Resume().JobTitles()),
		GitHubUsername:     p.GitHub().Username(),
		GitHubLanguages:    StringList(p.GitHub().Languages()),
		GitHubTopics:       StringList(p.GitHub().Topics()),
		PreferredLanguages: StringList(p.Prefs().Languages()),
		PreferredTopics:    StringList(p.Prefs().Topics()),
		MinHeatThreshold:   p.Prefs().MinHeat(),
		IntentVector:       NewEmbeddingColumn(p.IntentVector()),
		ResumeVector:       NewEmbeddingColumn(p.ResumeVector()),
		GitHubVector:       NewEmbeddingColumn(p.GitHubVector()),
		CombinedVector:     NewEmbeddingColumn(p.CombinedVector()),
		OnboardingStatus:   string(p.OnboardingStatus()),
		IsCalculating:      p.IsCalculating(),
		UpdatedAt:          p.UpdatedAt(),
	}
}

// InteractionMapper maps between event.SearchInteraction and
// SearchInteractionModel.
type InteractionMapper struct{}

// ToDomain converts a SearchInteractionModel to a domain SearchInteraction.
func (InteractionMapper) ToDomain(e SearchInteractionModel) event.SearchInteraction {
	filters := search.NewFilters(
		search.WithLanguages(e.FilterLanguages),
		search.WithLabels(e.FilterLabels),
		search.WithRepos(e.FilterRepos),
	)
	return event.ReconstructSearchInteraction(
		e.ID,
		e.UserID,
		e.SearchID,
		e.Query,
		filters,
		e.ResultCount,
		e.NodeID,
		e.Position,
		e.CreatedAt,
	)
}

// ToModel converts a domain SearchInteraction to a SearchInteractionModel.
func (InteractionMapper) ToModel(s event.SearchInteraction) SearchInteractionModel {
	f := s.Filters()
	return SearchInteractionModel{
		ID:              s.ID(),
		UserID:          s.UserID(),
		SearchID:        s.SearchID(),
		Query:           s.Query(),
		FilterLanguages: StringList(f.Languages()),
		FilterLabels:    StringList(f.Labels()),
		FilterRepos:     StringList(f.Repos()),
		ResultCount:     s.ResultCount(),
		NodeID:          s.NodeID(),
		Position:        s.Position(),
	}
}

// EventMapper maps between event.RecommendationEvent and
// RecommendationEventModel.
type EventMapper struct{}

// ToDomain converts a RecommendationEventModel to a domain event.
func (EventMapper) ToDomain(e RecommendationEventModel) event.RecommendationEvent {
	return event.ReconstructRecommendationEvent(
		e.EventID,
		e.BatchID,
		e.UserID,
		e.IssueNodeID,
		e.Position,
		event.Surface(e.Surface),
		event.Type(e.EventType),
		e.IsPersonalized,
		e.Metadata,
		e.CreatedAt,
	)
}

// ToModel converts a domain event to a RecommendationEventModel.
func (EventMapper) ToModel(ev event.RecommendationEvent) RecommendationEventModel {
	return RecommendationEventModel{
		EventID:        ev.EventID(),
		BatchID:        ev.BatchID(),
		UserID:         ev.UserID(),
		IssueNodeID:    ev.IssueNodeID(),
		Position:       ev.Position(),
		Surface:        string(ev.Surface()),
		EventType:      string(ev.EventType()),
		IsPersonalized: ev.IsPersonalized(),
		Metadata:       JSONMap(ev.Metadata()),
	}
}

// TaskMapper maps between task.Task and TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (TaskMapper) ToDomain(e TaskModel) task.Task {
	payload := map[string]any{}
	if e.Payload != "" {
		// A payload that fails to decode dequeues as empty rather than
		// wedging the queue.
		_ = json.Unmarshal([]byte(e.Payload), &payload)
	}
	return task.ReconstructTask(
		e.ID,
		e.DedupKey,
		task.Operation(e.Operation),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Task to a TaskModel.
func (TaskMapper) ToModel(t task.Task) TaskModel {
	payload, err := t.PayloadJSON()
	if err != nil {
		payload = []byte("{}")
	}
	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Operation: t.Operation().String(),
		Priority:  t.Priority(),
		Payload:   string(payload),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}
