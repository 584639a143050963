package domain

import "time"

// Site and Drone are masters rows used for report dropdowns.
type Site struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type Drone struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Report is one daily field report submitted by an employee. ReportDate is a
// date-only string in YYYY-MM-DD form; one report per employee per date.
type Report struct {
	ID                 int32     `json:"id"`
	EmployeeTelegramID int64     `json:"employee_telegram_id"`
	ReportDate         string    `json:"report_date"`
	SiteID             int32     `json:"site_id"`
	DroneID            int32     `json:"drone_id"`
	PilotName          string    `json:"pilot_name"`
	CopilotName        string    `json:"copilot_name,omitempty"`
	BaseHeightM        float64   `json:"base_height_m"`
	Remark             string    `json:"remark,omitempty"`
	CreatedOn          time.Time `json:"created_on"`

	// Populated by joined reads for display.
	SiteName  string `json:"site_name,omitempty"`
	DroneName string `json:"drone_name,omitempty"`
}

type ReportFlight struct {
	ID              int32   `json:"id"`
	ReportID        int32   `json:"report_id"`
	FlightTimeMin   int32   `json:"flight_time_min"`
	AreaSqKm        float64 `json:"area_sq_km"`
	UAVRoverFile    string  `json:"uav_rover_file,omitempty"`
	DroneBaseFileNo string  `json:"drone_base_file_no,omitempty"`
}
