package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type reportService struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	logger  *slog.Logger
}

func NewReportService(users repository.UserRepository, reports repository.ReportRepository, logger *slog.Logger) ReportService {
	return &reportService{users: users, reports: reports, logger: logger}
}

func (s *reportService) Masters(ctx context.Context) ([]*domain.Site, []*domain.Drone, error) {
	sites, err := s.reports.ListSites(ctx)
	if err != nil {
		return nil, nil, err
	}
	drones, err := s.reports.ListDrones(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sites, drones, nil
}

func validateReportInput(in *ReportInput) error {
	if _, err := time.Parse("2006-01-02", in.ReportDate); err != nil {
		return ErrInvalidInput
	}
	if in.SiteID <= 0 || in.DroneID <= 0 || in.PilotName == "" {
		return ErrInvalidInput
	}
	if len(in.Flights) == 0 {
		return ErrInvalidInput
	}
	for _, f := range in.Flights {
		if f.FlightTimeMin <= 0 || f.AreaSqKm < 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

func buildFlights(in *ReportInput) []*domain.ReportFlight {
	flights := make([]*domain.ReportFlight, 0, len(in.Flights))
	for _, f := range in.Flights {
		flights = append(flights, &domain.ReportFlight{
			FlightTimeMin:   f.FlightTimeMin,
			AreaSqKm:        f.AreaSqKm,
			UAVRoverFile:    f.UAVRoverFile,
			DroneBaseFileNo: f.DroneBaseFileNo,
		})
	}
	return flights
}

func (s *reportService) Submit(ctx context.Context, telegramID int64, in ReportInput) (*domain.Report, error) {
	if _, err := requireActiveRole(ctx, s.users, telegramID, domain.RoleEmployee); err != nil {
		return nil, err
	}
	if err := validateReportInput(&in); err != nil {
		return nil, err
	}

	report := &domain.Report{
		EmployeeTelegramID: telegramID,
		ReportDate:         in.ReportDate,
		SiteID:             in.SiteID,
		DroneID:            in.DroneID,
		PilotName:          in.PilotName,
		CopilotName:        in.CopilotName,
		BaseHeightM:        in.BaseHeightM,
		Remark:             in.Remark,
	}
	created, err := s.reports.CreateReport(ctx, report, buildFlights(&in))
	if err != nil {
		return nil, err
	}
	s.logger.Info("report submitted",
		"report_id", created.ID,
		"employee_telegram_id", telegramID,
		"report_date", created.ReportDate)
	return created, nil
}

// loadScoped fetches a report and checks it belongs to one of the manager's
// employees.
func (s *reportService) loadScoped(ctx context.Context, managerUserID, reportID int32) (*domain.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	employee, err := s.users.GetByTelegramID(ctx, report.EmployeeTelegramID)
	if err != nil {
		return nil, err
	}
	if employee.ManagerID == nil || *employee.ManagerID != managerUserID {
		return nil, ErrUnauthorized
	}
	return report, nil
}

func (s *reportService) GetReport(ctx context.Context, managerUserID, reportID int32) (*domain.Report, []*domain.ReportFlight, error) {
	report, err := s.loadScoped(ctx, managerUserID, reportID)
	if err != nil {
		return nil, nil, err
	}
	flights, err := s.reports.GetReportFlights(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	return report, flights, nil
}

func (s *reportService) UpdateReport(ctx context.Context, managerUserID, reportID int32, in ReportInput) error {
	report, err := s.loadScoped(ctx, managerUserID, reportID)
	if err != nil {
		return err
	}
	// The report date and owner are fixed at submission.
	in.ReportDate = report.ReportDate
	if err := validateReportInput(&in); err != nil {
		return err
	}

	report.SiteID = in.SiteID
	report.DroneID = in.DroneID
	report.PilotName = in.PilotName
	report.CopilotName = in.CopilotName
	report.BaseHeightM = in.BaseHeightM
	report.Remark = in.Remark
	if err := s.reports.UpdateReport(ctx, report, buildFlights(&in)); err != nil {
		return err
	}
	s.logger.Info("report updated", "report_id", reportID, "by_user_id", managerUserID)
	return nil
}

func (s *reportService) Track(ctx context.Context, managerUserID int32, dates []string) ([]*TrackRow, error) {
	if len(dates) == 0 {
		return nil, ErrInvalidInput
	}
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, ErrInvalidInput
		}
	}

	employees, err := s.users.ListActiveEmployees(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	byEmployee, err := s.reports.TrackByDates(ctx, managerUserID, dates)
	if err != nil {
		return nil, err
	}

	rows := make([]*TrackRow, 0, len(employees))
	for _, emp := range employees {
		row := &TrackRow{Employee: emp, Reports: make(map[string][]*domain.Report)}
		for _, rep := range byEmployee[emp.TelegramID] {
			row.Reports[rep.ReportDate] = append(row.Reports[rep.ReportDate], rep)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
