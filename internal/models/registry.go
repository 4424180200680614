package models

import (
	"strconv"
	"time"
)

// BuildingRecord is a row of the building master (建物マスター).
type BuildingRecord struct {
	BldgID   string
	CityCode string
	// ShozaiChiban is the raw "所在及び地番" field, possibly listing several parcels.
	ShozaiChiban string
}

// LandRecord is a row of the land number table (土地番号).
type LandRecord struct {
	CityCode     string
	Shozai       string
	Chiban       string
	RegisteredAt *time.Time
	LandID       string
}

// ChangeHistoryRecord is a land registry row carrying a change history (変更履歴).
type ChangeHistoryRecord struct {
	CityCode        string
	Shozai          string
	Chiban          string
	DisplayedChiban string
	History         string
	RegisteredAt    *time.Time
}

// FudeRecord is a parcel polygon of the cadastral map (14条地図).
type FudeRecord struct {
	Code     string
	CityCode string
	City     string
	Oaza     string
	Chome    string
	Aza      string
	Chiban   string
	Lon      *float64
	Lat      *float64
}

// BuildingParcelRow links a building to one cadastral parcel candidate.
type BuildingParcelRow struct {
	BldgID     string
	ChibanSeq  int
	Chiban     string
	AddressSeq int
	Address    string
	CityCode   string
	FudeCode   string
	Lon        float64
	Lat        float64
	Level      int
	Status     int
}

// BuildingParcelHeader lists the column names of BuildingParcelRow.
var BuildingParcelHeader = []string{
	"bldg_id", "chiban_seq", "chiban", "address_seq", "address",
	"city_code", "fude_code", "lon", "lat", "level", "status",
}

// Fields renders the row for CSV output. Level is empty when no node matched.
func (r BuildingParcelRow) Fields() []string {
	level, lon, lat := "", "", ""
	if r.Level > 0 {
		level = strconv.Itoa(r.Level)
		lon = strconv.FormatFloat(r.Lon, 'f', 6, 64)
		lat = strconv.FormatFloat(r.Lat, 'f', 6, 64)
	}
	return []string{
		r.BldgID,
		strconv.Itoa(r.ChibanSeq),
		r.Chiban,
		strconv.Itoa(r.AddressSeq),
		r.Address,
		r.CityCode,
		r.FudeCode,
		lon,
		lat,
		level,
		strconv.Itoa(r.Status),
	}
}

// LandParcelRow links a land record to its cadastral parcel.
type LandParcelRow struct {
	CityCode     string
	Shozai       string
	Chiban       string
	RegisteredAt *time.Time
	LandID       string
	FudeCode     string
}

// LandParcelHeader lists the column names of LandParcelRow.
var LandParcelHeader = []string{"市区町村コード", "所在", "地番", "登録の日", "土地id", "筆コード"}

// Fields renders the row for CSV output.
func (r LandParcelRow) Fields() []string {
	registered := ""
	if r.RegisteredAt != nil {
		registered = r.RegisteredAt.Format("2006-01-02")
	}
	return []string{r.CityCode, r.Shozai, r.Chiban, registered, r.LandID, r.FudeCode}
}
