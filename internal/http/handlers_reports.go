package http

import (
	"net/http"

	applog "finledger/internal/log"
	"finledger/internal/services"
)

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	ov, err := s.ledger.Reports.MonthOverview(r.Context(), userID(r.Context()), year, month)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(ov).Write(w)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", services.DefaultForecastMonths)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	if months < 1 || months > 24 {
		fail(w, r, applog.OpRead, badRequest("months must be between 1 and 24"))
		return
	}
	fc, err := s.ledger.Reports.Forecast(r.Context(), userID(r.Context()), s.now(), months)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(fc).Write(w)
}
