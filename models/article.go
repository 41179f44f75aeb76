package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) IsDecision() bool {
	return s == ModerationApproved || s == ModerationRejected
}

type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "pending"
	AnalysisAnalyzed AnalysisStatus = "analyzed"
)

var (
	ResearchTypes    = []string{"case study", "experiment", "survey", "other"}
	ParticipantTypes = []string{"student", "practitioner", "mixed"}
	EvidenceResults  = []string{"agree", "disagree", "mixed"}
)

type Article struct {
	ID       string                      `json:"id" gorm:"primaryKey;size:24"`
	DOI      string                      `json:"doi" gorm:"column:doi;index;not null"`
	Title    string                      `json:"title" gorm:"not null"`
	Authors  datatypes.JSONSlice[string] `json:"authors" gorm:"not null"`
	Source   string                      `json:"source" gorm:"not null"`
	Pubyear  string                      `json:"pubyear" gorm:"size:4;index;not null"`
	Claim    string                      `json:"claim" gorm:"type:text;not null"`
	Evidence string                      `json:"evidence" gorm:"type:text;not null"`

	Submitter      string    `json:"submitter" gorm:"index;not null"`
	SubmissionDate time.Time `json:"submissionDate" gorm:"index"`

	ModerationStatus ModerationStatus `json:"moderationStatus" gorm:"index;default:'pending'"`
	ModerationDate   *time.Time       `json:"moderationDate,omitempty"`
	Moderator        string           `json:"moderator,omitempty"`
	ModerationReason string           `json:"moderationReason,omitempty"`

	AnalysisStatus AnalysisStatus `json:"analysisStatus" gorm:"index;default:'pending'"`
	AnalysisDate   *time.Time     `json:"analysisDate,omitempty"`
	Analyst        string         `json:"analyst,omitempty"`

	SePractice      string `json:"sePractice,omitempty" gorm:"index"`
	ResearchType    string `json:"researchType,omitempty"`
	ParticipantType string `json:"participantType,omitempty"`
	Result          string `json:"result,omitempty"`

	Ratings []ArticleRating `json:"ratings,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewObjectID()
	}
	return nil
}

// AverageRating is the mean of the loaded ratings, 0 when none are loaded.
func (a *Article) AverageRating() float64 {
	return AverageOf(a.Ratings)
}

func AverageOf(ratings []ArticleRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}

// NewObjectID returns a 24 character hex identifier.
func NewObjectID() string {
	return primitive.NewObjectID().Hex()
}

// IsObjectID reports whether v has the shape of an identifier produced by NewObjectID.
func IsObjectID(v string) bool {
	return primitive.IsValidObjectID(v)
}
