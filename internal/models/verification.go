package models

import (
	"time"

	"github.com/lib/pq"
)

// PermittedActivities is the fixed catalog of activity labels a child
// profile may carry. Verification input is validated against it.
var PermittedActivities = []string{
	"Brincadeiras ao ar livre",
	"Jogos educativos",
	"Leitura",
	"Desenho/Pintura",
	"Música",
	"Culinária básica",
	"Artesanato",
	"Esportes",
}

// VerificationRecord holds the mother's identity questionnaire plus her
// children's profiles. One per user; replaced wholesale on re-verification.
type VerificationRecord struct {
	UserID          int64     `db:"user_id" json:"user_id"`
	MotherRG        string    `db:"mother_rg" json:"mother_rg"`
	MotherCPF       string    `db:"mother_cpf" json:"mother_cpf"`
	WorkHistory     string    `db:"work_history" json:"work_history"`
	References      string    `db:"references" json:"references"`
	CriminalRecord  string    `db:"criminal_record" json:"criminal_record"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	Children []ChildProfile `db:"-" json:"children"`
}

// ChildProfile is one child entry inside a verification record.
type ChildProfile struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"-"`
	Position         int            `db:"position" json:"-"`
	Name             string         `db:"name" json:"name"`
	Age              int            `db:"age" json:"age"`
	Documents        string         `db:"documents" json:"documents"`
	Allergies        string         `db:"allergies" json:"allergies"`
	Medications      string         `db:"medications" json:"medications"`
	ScreenRestricted bool           `db:"screen_restricted" json:"screen_restricted"`
	MaxScreenTime    string         `db:"max_screen_time" json:"max_screen_time"`
	Activities       pq.StringArray `db:"activities" json:"activities"`
	SpecialNotes     string         `db:"special_notes" json:"special_notes"`
}

// SubmitVerificationInput is the payload for completing (or redoing) the
// verification questionnaire.
type SubmitVerificationInput struct {
	MotherRG       string              `json:"mother_rg" binding:"required"`
	MotherCPF      string              `json:"mother_cpf" binding:"required"`
	WorkHistory    string              `json:"work_history"`
	References     string              `json:"references"`
	CriminalRecord string              `json:"criminal_record"`
	Children       []ChildProfileInput `json:"children" binding:"required"`
}

// ChildProfileInput is one child entry in the verification payload.
type ChildProfileInput struct {
	Name             string   `json:"name" binding:"required"`
	Age              int      `json:"age"`
	Documents        string   `json:"documents"`
	Allergies        string   `json:"allergies"`
	Medications      string   `json:"medications"`
	ScreenRestricted bool     `json:"screen_restricted"`
	MaxScreenTime    string   `json:"max_screen_time"`
	Activities       []string `json:"activities"`
	SpecialNotes     string   `json:"special_notes"`
}
