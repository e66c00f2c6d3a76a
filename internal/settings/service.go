package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// Service resolves and mutates per-project settings scoped by
// organization and channel. All cross-request coordination happens
// through the store; the service itself holds no mutable state.
type Service struct {
	store store.OrgStore
	now   func() time.Time
}

func NewService(st store.OrgStore) *Service {
	return &Service{store: st, now: time.Now}
}

// Resolve returns the effective configuration for (teamID, channelID),
// merging stored project settings over the hard-coded defaults.
//
// The organization record is lazily created and self-healed: a missing
// channel_projects map or a legacy native-datetime joined_date is fixed
// with a targeted update touching only the drifted fields. When the
// defaults merge introduces previously-absent keys, the merged project
// document is persisted exactly once so subsequent reads see a complete
// record.
//
// With an empty channelID no project scope is requested and Resolve
// returns (nil, nil) after ensuring the organization record exists.
// For an unbound channel the defaults are returned without any write.
// Storage errors propagate; callers pick the user-facing message.
func (s *Service) Resolve(ctx context.Context, teamID, channelID string) (*ProjectSettings, error) {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return nil, err
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", true)
	if err != nil {
		return nil, err
	}

	joined := store.FormatJoinedDate(s.now())
	if err := s.store.EnsureOrg(ctx, teamID, joined); err != nil {
		return nil, err
	}

	org, err := s.store.GetOrg(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// should not happen after the upsert; degrade to defaults
			if channelID == "" {
				return nil, nil
			}
			return DefaultSettings(), nil
		}
		return nil, err
	}

	fix := map[string]any{}
	if !org.HasBindings {
		fix["channel_projects"] = map[string]any{}
	}
	if org.JoinedDate == "" {
		fix["joined_date"] = joined
	} else if org.JoinedDateNative {
		// decoded already canonicalized the value; persist the string form
		fix["joined_date"] = org.JoinedDate
	}
	if len(fix) > 0 {
		if err := s.store.SetOrgFields(ctx, teamID, fix); err != nil {
			return nil, err
		}
	}

	if channelID == "" {
		return nil, nil
	}

	binding, bound := org.Bindings[channelID]
	if !bound || binding.Project == "" {
		return DefaultSettings(), nil
	}

	projectName, err := SanitizeProjectName(binding.Project)
	if err != nil {
		// fail soft: a corrupt binding must not take the command down
		logger.Error().
			Str("team_id", teamID).
			Str("channel_id", channelID).
			Str("project", binding.Project).
			Msg("invalid project name in channel binding, falling back to defaults")
		return DefaultSettings(), nil
	}

	effective, mergedDoc, changed := mergeDefaults(org.Projects[projectName])
	if changed {
		if err := s.store.SetOrgField(ctx, teamID, projectPath(projectName), mergedDoc); err != nil {
			return nil, err
		}
	}
	return effective, nil
}

// UpdateField writes a single project settings field to the scope implied
// by the channel binding: the bound project when one exists, otherwise
// the implicit "default" project.
//
// When a channel is bound to a project whose stored name fails
// sanitization, the write is skipped (and logged) instead of being
// routed through a corrupt field path. The operation does not fail, but
// it also does not apply.
func (s *Service) UpdateField(ctx context.Context, teamID, channelID, field string, value any) error {
	teamID, err := SanitizeSlackID(teamID, "team_id", false)
	if err != nil {
		return err
	}
	channelID, err = SanitizeSlackID(channelID, "channel_id", true)
	if err != nil {
		return err
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return fmt.Errorf("%w: field name is empty", ErrInvalidIdentifier)
	}
	if strings.ContainsAny(field, ".$") {
		return fmt.Errorf("%w: field name must not contain path characters", ErrInvalidIdentifier)
	}

	if channelID != "" {
		org, err := s.store.GetOrg(ctx, teamID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if org != nil {
			if binding, bound := org.Bindings[channelID]; bound && binding.Project != "" {
				projectName, err := SanitizeProjectName(binding.Project)
				if err != nil {
					logger.Error().
						Str("team_id", teamID).
						Str("channel_id", channelID).
						Str("project", binding.Project).
						Str("field", field).
						Msg("invalid project name in channel binding, skipping field write")
					return nil
				}
				return s.store.SetOrgField(ctx, teamID, projectPath(projectName)+"."+field, value)
			}
		}
	}

	return s.store.SetOrgField(ctx, teamID, projectPath(DefaultProjectName)+"."+field, value)
}

func projectPath(name string) string {
	return "projects." + name
}
