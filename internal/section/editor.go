package section

// Input is the form control an editor field is rendered with.
type Input string

const (
	InputText     Input = "text"
	InputTextarea Input = "textarea"
	InputEmail    Input = "email"
	InputPhone    Input = "tel"
	InputURL      Input = "url"
	InputMonth    Input = "month"
	InputCheckbox Input = "checkbox"
	InputTags     Input = "tags"
	InputJSON     Input = "json"
)

type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Input Input  `json:"input"`
}

// Editor describes the form used to edit a section. Repeated editors manage
// a list of entries, each with the same fields.
type Editor struct {
	Repeated bool    `json:"repeated"`
	Fields   []Field `json:"fields"`
}

func fields(pairs ...any) []Field {
	out := make([]Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		out = append(out, Field{Key: key, Label: DeriveLabel(key), Input: pairs[i+1].(Input)})
	}
	return out
}

var (
	basicInfoEditor = Editor{Fields: fields(
		"name", InputText, "title", InputText, "email", InputEmail, "phone", InputPhone,
		"location", InputText, "website", InputURL, "linkedin", InputURL, "github", InputURL,
	)}
	summaryEditor     = Editor{Fields: []Field{{Key: "content", Label: "Summary", Input: InputTextarea}}}
	experiencesEditor = Editor{Repeated: true, Fields: fields(
		"company", InputText, "position", InputText, "location", InputText,
		"startDate", InputMonth, "endDate", InputMonth, "current", InputCheckbox,
		"description", InputTextarea, "highlights", InputTags,
	)}
	educationEditor = Editor{Repeated: true, Fields: fields(
		"institution", InputText, "degree", InputText, "field", InputText, "location", InputText,
		"startDate", InputMonth, "endDate", InputMonth, "gpa", InputText, "description", InputTextarea,
	)}
	skillsEditor = Editor{Repeated: true, Fields: fields(
		"name", InputText, "level", InputText, "keywords", InputTags,
	)}
	projectsEditor = Editor{Repeated: true, Fields: fields(
		"name", InputText, "role", InputText, "url", InputURL, "technologies", InputTags,
		"startDate", InputMonth, "endDate", InputMonth, "description", InputTextarea, "highlights", InputTags,
	)}
	genericEditor = Editor{Fields: []Field{{Key: "", Label: "Content", Input: InputJSON}}}
)
