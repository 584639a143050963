package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) ListSites(ctx context.Context) ([]*domain.Site, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, &s)
	}
	return sites, rows.Err()
}

func (r *reportRepository) ListDrones(ctx context.Context) ([]*domain.Drone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM drones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drones: %w", err)
	}
	defer rows.Close()

	var drones []*domain.Drone
	for rows.Next() {
		var d domain.Drone
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan drone: %w", err)
		}
		drones = append(drones, &d)
	}
	return drones, rows.Err()
}

func (r *reportRepository) CreateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) (*domain.Report, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin report transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `INSERT INTO reports
		(employee_telegram_id, report_date, site_id, drone_id, pilot_name, copilot_name, base_height_m, remark)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''))
		RETURNING id, created_on`,
		report.EmployeeTelegramID, report.ReportDate, report.SiteID, report.DroneID,
		report.PilotName, report.CopilotName, report.BaseHeightM, report.Remark).
		Scan(&report.ID, &report.CreatedOn)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, repository.ErrDuplicateReport
		}
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	for _, f := range flights {
		f.ReportID = report.ID
		err = tx.QueryRowContext(ctx, `INSERT INTO report_flights
			(report_id, flight_time_min, area_sq_km, uav_rover_file, drone_base_file_no)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
			RETURNING id`,
			f.ReportID, f.FlightTimeMin, f.AreaSqKm, f.UAVRoverFile, f.DroneBaseFileNo).
			Scan(&f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert report flight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report: %w", err)
	}
	return report, nil
}

const reportColumns = `r.id, r.employee_telegram_id, to_char(r.report_date, 'YYYY-MM-DD'),
	r.site_id, r.drone_id, r.pilot_name, COALESCE(r.copilot_name, ''),
	r.base_height_m, COALESCE(r.remark, ''), r.created_on, s.name, d.name`

func scanReport(row interface{ Scan(...any) error }) (*domain.Report, error) {
	var rep domain.Report
	err := row.Scan(&rep.ID, &rep.EmployeeTelegramID, &rep.ReportDate,
		&rep.SiteID, &rep.DroneID, &rep.PilotName, &rep.CopilotName,
		&rep.BaseHeightM, &rep.Remark, &rep.CreatedOn, &rep.SiteName, &rep.DroneName)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) GetReport(ctx context.Context, id int32) (*domain.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r
		JOIN sites s ON s.id = r.site_id
		JOIN drones d ON d.id = r.drone_id
		WHERE r.id = $1`, reportColumns)
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func (r *reportRepository) GetReportFlights(ctx context.Context, reportID int32) ([]*domain.ReportFlight, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, report_id, flight_time_min, area_sq_km,
		COALESCE(uav_rover_file, ''), COALESCE(drone_base_file_no, '')
		FROM report_flights WHERE report_id = $1 ORDER BY id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report flights: %w", err)
	}
	defer rows.Close()

	var flights []*domain.ReportFlight
	for rows.Next() {
		var f domain.ReportFlight
		err := rows.Scan(&f.ID, &f.ReportID, &f.FlightTimeMin, &f.AreaSqKm,
			&f.UAVRoverFile, &f.DroneBaseFileNo)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report flight: %w", err)
		}
		flights = append(flights, &f)
	}
	return flights, rows.Err()
}

// UpdateReport rewrites the report header and replaces its flights.
func (r *reportRepository) UpdateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin report update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE reports SET
		site_id = $1, drone_id = $2, pilot_name = $3, copilot_name = NULLIF($4, ''),
		base_height_m = $5, remark = NULLIF($6, '')
		WHERE id = $7`,
		report.SiteID, report.DroneID, report.PilotName, report.CopilotName,
		report.BaseHeightM, report.Remark, report.ID)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_flights WHERE report_id = $1`, report.ID); err != nil {
		return fmt.Errorf("failed to clear report flights: %w", err)
	}
	for _, f := range flights {
		f.ReportID = report.ID
		err = tx.QueryRowContext(ctx, `INSERT INTO report_flights
			(report_id, flight_time_min, area_sq_km, uav_rover_file, drone_base_file_no)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
			RETURNING id`,
			f.ReportID, f.FlightTimeMin, f.AreaSqKm, f.UAVRoverFile, f.DroneBaseFileNo).
			Scan(&f.ID)
		if err != nil {
			return fmt.Errorf("failed to insert report flight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report update: %w", err)
	}
	return nil
}

// TrackByDates returns every report filed by the manager's employees on the
// given dates, keyed by employee telegram id.
func (r *reportRepository) TrackByDates(ctx context.Context, managerID int32, dates []string) (map[int64][]*domain.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r
		JOIN sites s ON s.id = r.site_id
		JOIN drones d ON d.id = r.drone_id
		JOIN users u ON u.telegram_id = r.employee_telegram_id
		WHERE u.manager_id = $1 AND r.report_date = ANY($2::date[])
		ORDER BY r.report_date, r.employee_telegram_id`, reportColumns)
	rows, err := r.db.QueryContext(ctx, query, managerID, pq.Array(dates))
	if err != nil {
		return nil, fmt.Errorf("failed to query report track: %w", err)
	}
	defer rows.Close()

	track := make(map[int64][]*domain.Report)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		track[rep.EmployeeTelegramID] = append(track[rep.EmployeeTelegramID], rep)
	}
	return track, rows.Err()
}
