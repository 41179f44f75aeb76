package models

// Redaction is the set of article fields hidden from an audience.
type Redaction uint8

const (
	RedactRatings Redaction = 1 << iota
	RedactModerationReason
	RedactModerator
	RedactAnalyst
	RedactAnalysisDate
)

const RedactNothing Redaction = 0

// Audiences.
const (
	RedactForDetail          = RedactModerationReason
	RedactForSearch          = RedactModerationReason | RedactModerator | RedactAnalyst
	RedactForModerationQueue = RedactRatings | RedactAnalysisDate | RedactAnalyst | RedactModerationReason
	RedactForAnalysisQueue   = RedactRatings | RedactModerationReason
	RedactForSubmitter       = RedactForModerationQueue
)

func (r Redaction) Has(f Redaction) bool {
	return r&f != 0
}

// View renders the article for an audience. averageRating is 0 when ratings are redacted.
func (a *Article) View(r Redaction) ArticleResponse {
	authors := []string(a.Authors)
	if authors == nil {
		authors = []string{}
	}
	v := ArticleResponse{
		ID:               a.ID,
		DOI:              a.DOI,
		Title:            a.Title,
		Authors:          authors,
		Source:           a.Source,
		Pubyear:          a.Pubyear,
		Claim:            a.Claim,
		Evidence:         a.Evidence,
		Submitter:        a.Submitter,
		SubmissionDate:   a.SubmissionDate,
		ModerationStatus: a.ModerationStatus,
		ModerationDate:   a.ModerationDate,
		AnalysisStatus:   a.AnalysisStatus,
		SePractice:       a.SePractice,
		ResearchType:     a.ResearchType,
		ParticipantType:  a.ParticipantType,
		Result:           a.Result,
	}
	if !r.Has(RedactModerator) && a.Moderator != "" {
		v.Moderator = stringPtr(a.Moderator)
	}
	if !r.Has(RedactModerationReason) && a.ModerationReason != "" {
		v.ModerationReason = stringPtr(a.ModerationReason)
	}
	if !r.Has(RedactAnalyst) && a.Analyst != "" {
		v.Analyst = stringPtr(a.Analyst)
	}
	if !r.Has(RedactAnalysisDate) {
		v.AnalysisDate = a.AnalysisDate
	}
	if !r.Has(RedactRatings) {
		v.Ratings = a.Ratings
		v.AverageRating = a.AverageRating()
	}
	return v
}

func ViewAll(articles []Article, r Redaction) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, articles[i].View(r))
	}
	return out
}

func stringPtr(s string) *string {
	return &s
}
