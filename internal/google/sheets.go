package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"pirouette/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const applicationsSheet = "Applications"

type SheetsService struct {
	service  *sheets.Service
	sheetID  string
	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

func NewSheetsService(credentialsFile, applicationsSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:  srv,
		sheetID:  applicationsSheetID,
		rowCache: make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = service.WarmUpCache(ctx)
	}()

	// Periodic cache refresh every 1 hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.sheetID, applicationsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, applicationsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendApplication добавляет заявку в конец листа.
func (s *SheetsService) AppendApplication(ctx context.Context, a *models.Application, programTitle string) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{applicationRow(a, programTitle)},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.sheetID, applicationsSheet+"!A:J", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append application %d: %v", a.ID, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if row := parseRowFromRange(resp.Updates.UpdatedRange); row > 0 {
			s.cacheMu.Lock()
			s.rowCache[a.ID] = row
			s.cacheMu.Unlock()
		}
	}
	return nil
}

// UpdateApplicationStatus обновляет колонку статуса заявки.
func (s *SheetsService) UpdateApplicationStatus(ctx context.Context, applicationID int64, status string) error {
	row, err := s.findRow(ctx, applicationID)
	if err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{{status}}}
	rangeData := fmt.Sprintf("%s!I%d", applicationsSheet, row)
	_, err = s.service.Spreadsheets.Values.Update(s.sheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update application %d status: %v", applicationID, err)
	}
	return nil
}

// ReplaceApplicationsSheet полностью перезаписывает лист заявок.
func (s *SheetsService) ReplaceApplicationsSheet(ctx context.Context, apps []*models.Application, programTitles map[int64]string) error {
	values := [][]interface{}{applicationHeader()}
	for _, a := range apps {
		values = append(values, applicationRow(a, programTitles[a.ProgramID]))
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.sheetID, applicationsSheet+"!A:J", &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear applications sheet: %v", err)
	}

	rangeData := fmt.Sprintf("%s!A1:J%d", applicationsSheet, len(values))
	_, err := s.service.Spreadsheets.Values.Update(s.sheetID, rangeData, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("replace applications sheet: %v", err)
	}

	s.cacheMu.Lock()
	s.rowCache = make(map[int64]int)
	for i, a := range apps {
		s.rowCache[a.ID] = i + 2
	}
	s.cacheMu.Unlock()

	return nil
}

func (s *SheetsService) findRow(ctx context.Context, applicationID int64) (int, error) {
	s.cacheMu.RLock()
	row, ok := s.rowCache[applicationID]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	if err := s.WarmUpCache(ctx); err != nil {
		return 0, err
	}

	s.cacheMu.RLock()
	row, ok = s.rowCache[applicationID]
	s.cacheMu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("application %d not found in sheet", applicationID)
	}
	return row, nil
}

func applicationHeader() []interface{} {
	return []interface{}{
		"ID", "Создана", "Программа", "Имя", "Телефон", "Вариант", "Занятий", "Сумма", "Статус", "Комментарий",
	}
}

func applicationRow(a *models.Application, programTitle string) []interface{} {
	variant := "курс"
	sessionCount := 0
	switch {
	case a.IsSingleVisit():
		variant = "разовое"
		sessionCount = 1
	case a.IsPass():
		variant = "абонемент"
		sessionCount = len(a.SessionIDs)
	}

	return []interface{}{
		a.ID,
		a.CreatedAt.Format("2006-01-02 15:04:05"),
		programTitle,
		a.UserName,
		a.UserPhone,
		variant,
		sessionCount,
		a.Amount,
		a.Status,
		a.UserNotes,
	}
}

// parseRowFromRange извлекает номер строки из диапазона вида
// "Applications!A5:J5".
func parseRowFromRange(updatedRange string) int {
	var row int
	fmt.Sscanf(tailDigits(updatedRange), "%d", &row)
	return row
}

func tailDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}
