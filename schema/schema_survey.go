package schema

// SurveyResponse is one answered survey form.
type SurveyResponse struct {
	ID          int64  `json:"id"`
	LiveName    string `json:"live_name"`
	EventDate   string `json:"event_date"` // YYYY-MM-DD
	VenueType   string `json:"venue_type"`
	EventYear   int    `json:"event_year"`
	RequestSong string `json:"request_song"`
	Visits      string `json:"visits"`
	Prefecture  string `json:"prefecture"`
	Age         string `json:"age"`
	Gender      string `json:"gender"`
	CreatedAt   string `json:"created_at"`
}

// LiveKey identifies the live a response belongs to.
func (r SurveyResponse) LiveKey() string {
	return r.EventDate + "_" + r.LiveName
}

// Answer returns the raw answer for a field.
func (r SurveyResponse) Answer(field SurveyField) string {
	switch field {
	case VisitsField:
		return r.Visits
	case PrefectureField:
		return r.Prefecture
	case AgeField:
		return r.Age
	case GenderField:
		return r.Gender
	default:
		return r.RequestSong
	}
}

// SurveyFilter narrows the responses taken into a breakdown.
// Zero values mean no filtering on that dimension.
type SurveyFilter struct {
	Year      int    `json:"year,omitempty"`
	VenueType string `json:"venue_type,omitempty"`
	LiveKey   string `json:"live_key,omitempty"`
}

// CategoryCount is one label of a breakdown.
type CategoryCount struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // Percent of all counted answers
}

// SurveyBreakdown is the result of a category aggregation.
type SurveyBreakdown struct {
	Field     SurveyField     `json:"field"`
	Filter    SurveyFilter    `json:"filter"`
	Responses int             `json:"responses"` // Responses left after filtering
	Total     int             `json:"total"`     // Sum of all counts
	Counts    []CategoryCount `json:"counts"`
}

// LiveOption is a registered live that responses can be filtered by.
type LiveOption struct {
	Key       string `json:"key"`
	LiveName  string `json:"live_name"`
	EventDate string `json:"event_date"`
	VenueType string `json:"venue_type"`
	Responses int    `json:"responses"`
}
