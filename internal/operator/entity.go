package operator

import "time"

// Operator is a member of the housekeeping/maintenance staff.
type Operator struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Avatar    string    `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}
