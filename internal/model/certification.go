package model

// Certification is a catalog entry. The application only reads it; rows are
// seeded and maintained outside the request path.
type Certification struct {
	ID              string `json:"id"              yaml:"id"`
	Name            string `json:"name"            yaml:"name"`
	Description     string `json:"description"     yaml:"description"`
	Category        string `json:"category"        yaml:"category"`
	DifficultyLevel string `json:"difficultyLevel" yaml:"difficulty_level"`
	EstimatedPeriod int    `json:"estimatedPeriod" yaml:"estimated_period"` // days
	PassingScore    int    `json:"passingScore"    yaml:"passing_score"`
	Fee             int    `json:"fee"             yaml:"fee"`
	IsActive        bool   `json:"isActive"        yaml:"is_active"`
}

// CertificationSummary is the subset of a certification joined onto projects.
type CertificationSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	DifficultyLevel string `json:"difficultyLevel"`
	EstimatedPeriod int    `json:"estimatedPeriod"`
}
