package models

// Doctor is static reference data, never mutated by the simulation
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}
