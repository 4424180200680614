package models

// ParcelLocation represents a resolved parcel: the address node it matched, the cadastral parcel code and its representative coordinates.
type ParcelLocation struct {
	Chiban    string  `json:"chiban"`
	Address   string  `json:"address"`
	CityCode  string  `json:"city_code"`
	FudeCode  string  `json:"fude_code"`
	Level     int     `json:"level"`
	Status    int     `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
