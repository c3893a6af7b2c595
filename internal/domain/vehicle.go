package domain

// Vehicle is the user's vehicle profile.
type Vehicle struct {
	VehicleID string `json:"vehicle_id"`
	Plate     string `json:"plate"`
	Model     string `json:"model"`
	Color     string `json:"color"`
}

// SampleVehicle is stored when no profile exists yet.
func SampleVehicle() Vehicle {
	return Vehicle{VehicleID: "12345", Plate: "ABC1D23", Model: "Gol 1.0", Color: "Prata"}
}
