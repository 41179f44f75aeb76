package models

import "time"

type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Name     string   `json:"name" validate:"required,min=1,max=100"`
	Role     UserRole `json:"role,omitempty" validate:"omitempty,oneof=submitter moderator analyst admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UpdateUserRequest struct {
	Name string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Role UserRole `json:"role,omitempty" validate:"omitempty,oneof=submitter moderator analyst admin"`
}

type SubmitArticleRequest struct {
	Title     string   `json:"title" validate:"required,min=1,max=500"`
	Authors   []string `json:"authors" validate:"required,min=1,dive,required"`
	Source    string   `json:"source" validate:"required,min=1,max=200"`
	Pubyear   string   `json:"pubyear" validate:"required,len=4"`
	DOI       string   `json:"doi" validate:"required"`
	Claim     string   `json:"claim" validate:"required"`
	Evidence  string   `json:"evidence" validate:"required"`
	Submitter string   `json:"submitter" validate:"required,email"`
}

type SubmitArticleResponse struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Status ModerationStatus `json:"status"`
}

type ModerateArticleRequest struct {
	Status ModerationStatus `json:"status" validate:"required,oneof=approved rejected"`
	Reason string           `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// AnalyzeArticleRequest carries the classification. ResearchType and ParticipantType are
// checked by the service because their enum members may contain spaces or synonyms.
type AnalyzeArticleRequest struct {
	SePractice      string `json:"sePractice" validate:"required"`
	Claim           string `json:"claim" validate:"required"`
	Result          string `json:"result" validate:"required,oneof=agree disagree mixed"`
	ResearchType    string `json:"researchType,omitempty"`
	ParticipantType string `json:"participantType,omitempty"`
}

type RateArticleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

type RemoveRatingRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type UpsertSiteConfigRequest struct {
	Practices      PracticeTaxonomy      `json:"practices,omitempty" yaml:"practices"`
	DefaultColumns []string              `json:"defaultColumns,omitempty" yaml:"defaultColumns"`
	Notifications  *NotificationSettings `json:"notifications,omitempty" yaml:"notifications"`
}

// SearchParams are the public search filters. Empty strings mean "not supplied".
type SearchParams struct {
	SePractice      string `form:"sePractice" json:"sePractice,omitempty"`
	Claim           string `form:"claim" json:"claim,omitempty"`
	MinYear         string `form:"minYear" json:"minYear,omitempty" validate:"omitempty,len=4"`
	MaxYear         string `form:"maxYear" json:"maxYear,omitempty" validate:"omitempty,len=4"`
	Result          string `form:"result" json:"result,omitempty" validate:"omitempty,oneof=agree disagree mixed"`
	ResearchType    string `form:"researchType" json:"researchType,omitempty"`
	ParticipantType string `form:"participantType" json:"participantType,omitempty"`
	Page            int    `form:"page" json:"-" validate:"omitempty,min=1"`
	Limit           int    `form:"limit" json:"-" validate:"omitempty,min=1"`
	SortBy          string `form:"sortBy" json:"-"`
	SortOrder       string `form:"sortOrder" json:"-" validate:"omitempty,oneof=asc desc"`
}

type Pagination struct {
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int64      `json:"total"`
	Pages int        `json:"pages"`
	Links *PageLinks `json:"links,omitempty"`
}

type PageLinks struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
	First    string `json:"first"`
	Last     string `json:"last"`
}

type SearchResult struct {
	Articles   []ArticleResponse `json:"articles"`
	Pagination Pagination        `json:"pagination"`
	Filters    SearchParams      `json:"filters"`
}

type YearRange struct {
	MinYear int `json:"minYear"`
	MaxYear int `json:"maxYear"`
}

type SearchFilters struct {
	SePractices      []string  `json:"sePractices"`
	ResearchTypes    []string  `json:"researchTypes"`
	ParticipantTypes []string  `json:"participantTypes"`
	YearRange        YearRange `json:"yearRange"`
}

// ArticleResponse is an Article as seen by one audience. Fields stripped by a
// Redaction are left nil and omitted from the JSON.
type ArticleResponse struct {
	ID               string           `json:"id"`
	DOI              string           `json:"doi"`
	Title            string           `json:"title"`
	Authors          []string         `json:"authors"`
	Source           string           `json:"source"`
	Pubyear          string           `json:"pubyear"`
	Claim            string           `json:"claim"`
	Evidence         string           `json:"evidence"`
	Submitter        string           `json:"submitter"`
	SubmissionDate   time.Time        `json:"submissionDate"`
	ModerationStatus ModerationStatus `json:"moderationStatus"`
	ModerationDate   *time.Time       `json:"moderationDate,omitempty"`
	Moderator        *string          `json:"moderator,omitempty"`
	ModerationReason *string          `json:"moderationReason,omitempty"`
	AnalysisStatus   AnalysisStatus   `json:"analysisStatus"`
	AnalysisDate     *time.Time       `json:"analysisDate,omitempty"`
	Analyst          *string          `json:"analyst,omitempty"`
	SePractice       string           `json:"sePractice,omitempty"`
	ResearchType     string           `json:"researchType,omitempty"`
	ParticipantType  string           `json:"participantType,omitempty"`
	Result           string           `json:"result,omitempty"`
	Ratings          []ArticleRating  `json:"ratings,omitempty"`
	AverageRating    float64          `json:"averageRating"`
}
