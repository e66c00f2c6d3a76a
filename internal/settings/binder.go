package settings

import (
	"context"
	"errors"
	"sort"

	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// BindChannel points a channel at a named project, creating the project
// record on first use. The channel's welcome flag survives rebinding so
// the one-time blurb is not repeated when a team reorganizes projects.
func (s *Service) BindChannel(ctx context.Context, teamID, channelID, projectName string) error {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return err
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", false)
	if err != nil {
		return err
	}
	projectName, err = SanitizeProjectName(projectName)
	if err != nil {
		return err
	}

	welcomeShown := false
	if org, err := s.store.GetOrg(ctx, teamID); err == nil {
		if binding, bound := org.Bindings[channelID]; bound && binding.WelcomeSet {
			welcomeShown = binding.WelcomeShown
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	bindingDoc := map[string]any{
		"project":       projectName,
		"welcome_shown": welcomeShown,
	}
	if err := s.store.SetOrgField(ctx, teamID, bindingPath(channelID), bindingDoc); err != nil {
		return err
	}

	// materialize the project record with defaults filled in
	_, err = s.Resolve(ctx, teamID, channelID)
	return err
}

// ProjectNames lists the organization's project names in sorted order.
// An organization without a record yet has no projects.
func (s *Service) ProjectNames(ctx context.Context, teamID string) ([]string, error) {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return nil, err
	}
	org, err := s.store.GetOrg(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(org.Projects))
	for name := range org.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ChannelProjectName returns the project a channel is bound to, or ""
// when unbound. Storage failures degrade to "" so status-style commands
// stay usable.
func (s *Service) ChannelProjectName(ctx context.Context, teamID, channelID string) string {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return ""
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", false)
	if err != nil {
		return ""
	}
	org, err := s.store.GetOrg(ctx, teamID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error().Err(err).Str("team_id", teamID).Msg("failed to read channel binding")
		}
		return ""
	}
	if binding, bound := org.Bindings[channelID]; bound {
		return binding.Project
	}
	return ""
}

// WelcomeShown reports whether the one-time welcome blurb has already
// been posted in the channel. Errors read as "not shown yet"; repeating
// the blurb is cheaper than swallowing it.
func (s *Service) WelcomeShown(ctx context.Context, teamID, channelID string) bool {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return false
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", false)
	if err != nil {
		return false
	}
	org, err := s.store.GetOrg(ctx, teamID)
	if err != nil {
		return false
	}
	binding, bound := org.Bindings[channelID]
	return bound && binding.WelcomeShown
}

// SetWelcomeShown marks the welcome blurb as posted. Failures are
// logged and dropped; the flag is best effort.
func (s *Service) SetWelcomeShown(ctx context.Context, teamID, channelID string) {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", false)
	if err != nil {
		return
	}
	if err := s.store.SetOrgField(ctx, teamID, bindingPath(channelID)+".welcome_shown", true); err != nil {
		logger.Error().Err(err).
			Str("team_id", teamID).
			Str("channel_id", channelID).
			Msg("failed to persist welcome flag")
	}
}

func bindingPath(channelID string) string {
	return "channel_projects." + channelID
}
