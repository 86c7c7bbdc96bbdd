package models

// Building is read-only reference data: location plus the declared class timetable per room.
type Building struct {
	ID        string                  `bson:"id" json:"id"`
	Name      string                  `bson:"name" json:"name"`
	Code      int                     `bson:"code" json:"code"`
	Lat       float64                 `bson:"naverMapLat" json:"naverMapLat"`
	Lng       float64                 `bson:"naverMapLng" json:"naverMapLng"`
	RoomCount int                     `bson:"roomCount" json:"roomCount"`
	ImageURL  string                  `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Timetable map[string]RoomSchedule `bson:"timetable" json:"timetable"`
}

// RoomSchedule lists the fixed class-occupancy blocks of one room.
type RoomSchedule struct {
	Schedule []ClassSchedule `bson:"schedule" json:"schedule"`
}

// ClassSchedule is one pre-existing class block; periods are inclusive.
type ClassSchedule struct {
	Day         string `bson:"day" json:"day"`
	PeriodStart int    `bson:"periodStart" json:"periodStart"`
	PeriodEnd   int    `bson:"periodEnd" json:"periodEnd"`
	Subject     string `bson:"subject,omitempty" json:"subject,omitempty"`
}

// BuildingOccupancy is one marker on the occupancy map.
type BuildingOccupancy struct {
	BuildingID string  `json:"buildingId"`
	Name       string  `json:"name"`
	Code       int     `json:"code"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Date       string  `json:"date"`
	Percent    int     `json:"percent"`
	Level      string  `json:"level"`
}
