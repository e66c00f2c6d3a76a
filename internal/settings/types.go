package settings

// DefaultProjectName is the implicit project used when a field write
// arrives with no channel binding.
const DefaultProjectName = "default"

// DefaultBugReportTemplate is the fixed template applied to every
// project until it is edited.
const DefaultBugReportTemplate = `
Bug name:
Steps:
Actual result:
Expected:
`

// Field names of a project settings document. These are the only values
// ever interpolated into a projects.<name>.<field> path by this codebase.
const (
	FieldUseProjectContext = "use_project_context"
	FieldProjectContext    = "project_context"
	FieldBugReportTemplate = "bug_report_template"
	FieldJiraToken         = "jira_token"
	FieldJiraURL           = "jira_url"
	FieldJiraEmail         = "jira_email"
	FieldJiraBugQuery      = "jira_bug_query"
	FieldJiraDefaults      = "jira_defaults"
)

// ProjectSettings is the effective configuration for one project,
// every field populated (defaults merged under stored values).
type ProjectSettings struct {
	UseProjectContext bool
	ProjectContext    string
	BugReportTemplate string
	JiraToken         string
	JiraURL           string
	JiraEmail         string
	JiraBugQuery      string
	JiraDefaults      map[string]string
}

// DefaultSettings returns a fresh copy of the hard-coded project defaults.
func DefaultSettings() *ProjectSettings {
	return &ProjectSettings{
		BugReportTemplate: DefaultBugReportTemplate,
		JiraDefaults:      map[string]string{},
	}
}

// defaultsDoc lists the keys a stored project document must carry. Jira
// fields are intentionally absent: they default to empty in the typed
// record but are never backfilled into storage.
func defaultsDoc() map[string]any {
	return map[string]any{
		FieldUseProjectContext: false,
		FieldProjectContext:    "",
		FieldBugReportTemplate: DefaultBugReportTemplate,
	}
}

// mergeDefaults merges the hard-coded defaults under a raw stored project
// document. It returns the typed effective settings, the merged document
// to persist, and whether the stored document was missing any default key
// (i.e. a corrective write is needed).
func mergeDefaults(raw map[string]any) (*ProjectSettings, map[string]any, bool) {
	merged := defaultsDoc()
	changed := raw == nil
	for key := range merged {
		if raw != nil {
			if _, present := raw[key]; present {
				continue
			}
		}
		changed = true
	}
	for k, v := range raw {
		merged[k] = v
	}
	return decodeSettings(merged), merged, changed
}

// decodeSettings converts a merged project document into the typed record.
// Values of unexpected types fall back to the field's default rather than
// failing resolution.
func decodeSettings(doc map[string]any) *ProjectSettings {
	s := DefaultSettings()
	if v, ok := doc[FieldUseProjectContext].(bool); ok {
		s.UseProjectContext = v
	}
	if v, ok := doc[FieldProjectContext].(string); ok {
		s.ProjectContext = v
	}
	if v, ok := doc[FieldBugReportTemplate].(string); ok {
		s.BugReportTemplate = v
	}
	if v, ok := doc[FieldJiraToken].(string); ok {
		s.JiraToken = v
	}
	if v, ok := doc[FieldJiraURL].(string); ok {
		s.JiraURL = v
	}
	if v, ok := doc[FieldJiraEmail].(string); ok {
		s.JiraEmail = v
	}
	if v, ok := doc[FieldJiraBugQuery].(string); ok {
		s.JiraBugQuery = v
	}
	s.JiraDefaults = decodeJiraDefaults(doc[FieldJiraDefaults])
	return s
}

func decodeJiraDefaults(raw any) map[string]string {
	defaults := map[string]string{}
	m, ok := raw.(map[string]any)
	if !ok {
		if typed, isTyped := raw.(map[string]string); isTyped {
			for k, v := range typed {
				defaults[k] = v
			}
		}
		return defaults
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			defaults[k] = s
		}
	}
	return defaults
}
