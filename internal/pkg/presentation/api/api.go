package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/printers"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/sensors"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/tracing"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var tracer = otel.Tracer("spool-mgmt/api")

var errBadRequest = fmt.Errorf("%w: malformed request", types.ErrValidation)

func RegisterHandlers(ctx context.Context, router *chi.Mux, app application.App, events http.Handler) *chi.Mux {
	log := logging.GetLoggerFromContext(ctx)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v0", func(r chi.Router) {
		r.Route("/devices", func(r chi.Router) {
			r.Post("/report", handle(log, "device-report", deviceReport(app.Sensors())))
			r.Get("/", handle(log, "list-devices", listDevices(app.Sensors())))
			r.Get("/{deviceID}", handle(log, "get-device", getDevice(app.Sensors())))
		})

		r.Route("/holders/{holderID}", func(r chi.Router) {
			r.Post("/calibrate", handle(log, "calibrate-holder", calibrateHolder(app.Sensors())))
			r.Patch("/sensors", handle(log, "update-sensor-data", updateSensorData(app.Sensors())))
			r.Patch("/configuration", handle(log, "configure-holder", configureHolder(app.Sensors())))
			r.Put("/spool", handle(log, "assign-spool", assignSpool(app.Printers())))
			r.Delete("/spool", handle(log, "remove-spool", removeSpool(app.Printers())))
		})

		r.Route("/printers", func(r chi.Router) {
			r.Get("/", handle(log, "list-printers", listPrinters(app.Printers())))
			r.Post("/", handle(log, "create-printer", createPrinter(app.Printers())))
			r.Route("/{printerID}", func(r chi.Router) {
				r.Get("/", handle(log, "get-printer", getPrinter(app.Printers())))
				r.Post("/sync", handle(log, "sync-printer", syncPrinter(app.Printers())))
				r.Put("/slots", handle(log, "set-printer-slots", setSlots(app.Printers())))
				r.Post("/reload", handle(log, "reload-filaments", reloadFilaments(app.Printers())))
				r.Get("/jobs", handle(log, "list-print-jobs", printJobs(app.Printers())))
			})
		})

		r.Route("/spools", func(r chi.Router) {
			r.Get("/trend", handle(log, "usage-trend", usageTrend(app.Spools())))
			r.Route("/{spoolID}", func(r chi.Router) {
				r.Patch("/weight", handle(log, "update-weight", updateWeight(app.Spools())))
				r.Put("/initial-weight", handle(log, "set-initial-weight", setInitialWeight(app.Spools())))
				r.Post("/refill", handle(log, "refill-spool", refillSpool(app.Spools())))
				r.Put("/status", handle(log, "set-spool-status", setSpoolStatus(app.Spools())))
				r.Put("/nfc", handle(log, "link-nfc-tag", linkNFCTag(app.Spools())))
				r.Get("/history", handle(log, "weight-history", weightHistory(app.Spools())))
			})
		})

		if events != nil {
			r.Handle("/events", events)
		}
	})

	return router
}

// handlerFunc returns the status code and response body on success.
type handlerFunc func(ctx context.Context, r *http.Request) (int, any, error)

func handle(log zerolog.Logger, name string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), name)
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		status, body, err := fn(ctx, r)
		if err != nil {
			writeError(w, requestLogger, name, err)
			return
		}

		if body == nil {
			w.WriteHeader(status)
			return
		}

		response, ok := body.(ApiResponse)
		if !ok {
			response = ApiResponse{Data: body}
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(response.Byte())
	}
}

func writeError(w http.ResponseWriter, log zerolog.Logger, name string, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, types.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msgf("%s failed", name)
	} else {
		log.Debug().Err(err).Msgf("%s rejected", name)
		message = err.Error()
	}

	b, _ := json.Marshal(ErrorResponse{Error: message})

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err.Error())
	}
	return nil
}

func days(r *http.Request) (int, error) {
	d := r.URL.Query().Get("days")
	if d == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(d)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: days must be a positive number", errBadRequest)
	}

	return n, nil
}

func deviceReport(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		report := types.DeviceReport{}
		if err := decode(r, &report); err != nil {
			return 0, nil, err
		}

		device, err := svc.ApplyReport(ctx, report)
		return http.StatusOK, device, err
	}
}

func listDevices(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		devices, err := svc.Devices(ctx)
		return http.StatusOK, list(devices), err
	}
}

func getDevice(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		device, err := svc.Device(ctx, chi.URLParam(r, "deviceID"))
		return http.StatusOK, device, err
	}
}

func calibrateHolder(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		c := sensors.Calibration{}
		if err := decode(r, &c); err != nil {
			return 0, nil, err
		}

		holder, err := svc.Calibrate(ctx, chi.URLParam(r, "holderID"), c)
		return http.StatusOK, holder, err
	}
}

func updateSensorData(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := sensorRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}

		nfcRead, tag, err := req.tag()
		if err != nil {
			return 0, nil, fmt.Errorf("%w: nfcTagId must be a string", errBadRequest)
		}

		holder, err := svc.UpdateSensorData(ctx, chi.URLParam(r, "holderID"), sensors.SensorData{
			Weight:  req.Weight,
			RawADC:  req.RawADC,
			NFCRead: nfcRead,
			TagID:   tag,
		})
		return http.StatusOK, holder, err
	}
}

func configureHolder(svc sensors.Reconciler) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		cfg := sensors.HolderConfig{}
		if err := decode(r, &cfg); err != nil {
			return 0, nil, err
		}

		holder, err := svc.ConfigureHolder(ctx, chi.URLParam(r, "holderID"), cfg)
		return http.StatusOK, holder, err
	}
}

func assignSpool(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := assignSpoolRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		if req.SpoolID == "" {
			return 0, nil, fmt.Errorf("%w: spoolId is required", errBadRequest)
		}

		holder, err := svc.AssignSpool(ctx, chi.URLParam(r, "holderID"), req.SpoolID, printers.AssignOptions{
			Displace:         req.Force,
			OverridePrinting: req.OverridePrinting,
		})
		return http.StatusOK, holder, err
	}
}

func removeSpool(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		holder, err := svc.RemoveSpool(ctx, chi.URLParam(r, "holderID"), printers.AssignOptions{OverridePrinting: force})
		return http.StatusOK, holder, err
	}
}

func listPrinters(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		all, err := svc.List(ctx)
		return http.StatusOK, list(all), err
	}
}

func createPrinter(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		p := printers.NewPrinter{}
		if err := decode(r, &p); err != nil {
			return 0, nil, err
		}

		printer, err := svc.Create(ctx, p)
		return http.StatusCreated, printer, err
	}
}

func getPrinter(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		printer, err := svc.Get(ctx, chi.URLParam(r, "printerID"))
		return http.StatusOK, printer, err
	}
}

func syncPrinter(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		printer, err := svc.SyncStatus(ctx, chi.URLParam(r, "printerID"))
		return http.StatusOK, printer, err
	}
}

func setSlots(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := slotsRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		if req.Count == nil {
			return 0, nil, fmt.Errorf("%w: count is required", errBadRequest)
		}

		printer, err := svc.SetHolderCount(ctx, chi.URLParam(r, "printerID"), *req.Count)
		return http.StatusOK, printer, err
	}
}

func reloadFilaments(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := reloadRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		if req.Assignments == nil {
			return 0, nil, fmt.Errorf("%w: assignments must be an array", errBadRequest)
		}

		printer, err := svc.ReloadFilaments(ctx, chi.URLParam(r, "printerID"), req.Assignments)
		return http.StatusOK, printer, err
	}
}

func printJobs(svc printers.PrinterService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		jobs, err := svc.PrintJobs(ctx, chi.URLParam(r, "printerID"))
		return http.StatusOK, list(jobs), err
	}
}

func updateWeight(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := weightRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		if req.Weight == nil {
			return 0, nil, fmt.Errorf("%w: weight_g is required", errBadRequest)
		}

		source, err := types.ParseWeightSource(req.Source)
		if err != nil {
			return 0, nil, err
		}

		spool, err := svc.UpdateWeight(ctx, chi.URLParam(r, "spoolID"), *req.Weight, source)
		return http.StatusOK, spool, err
	}
}

func setInitialWeight(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := weightRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		if req.Weight == nil {
			return 0, nil, fmt.Errorf("%w: weight_g is required", errBadRequest)
		}

		spool, err := svc.SetInitialWeight(ctx, chi.URLParam(r, "spoolID"), *req.Weight)
		return http.StatusOK, spool, err
	}
}

func refillSpool(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		refill := spools.Refill{}
		if err := decode(r, &refill); err != nil {
			return 0, nil, err
		}

		spool, err := svc.Refill(ctx, chi.URLParam(r, "spoolID"), refill)
		return http.StatusOK, spool, err
	}
}

func setSpoolStatus(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := statusRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}

		switch req.Status {
		case database.SpoolSpent, database.SpoolActive:
		default:
			return 0, nil, fmt.Errorf("%w: status must be %s or %s", errBadRequest, database.SpoolActive, database.SpoolSpent)
		}

		spool, err := svc.MarkSpent(ctx, chi.URLParam(r, "spoolID"), req.Status == database.SpoolSpent)
		return http.StatusOK, spool, err
	}
}

func linkNFCTag(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		req := nfcRequest{}
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}

		spool, err := svc.LinkNFCTag(ctx, chi.URLParam(r, "spoolID"), req.NFCTagID)
		return http.StatusOK, spool, err
	}
}

func weightHistory(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		n, err := days(r)
		if err != nil {
			return 0, nil, err
		}

		history, err := svc.History(ctx, chi.URLParam(r, "spoolID"), n)
		return http.StatusOK, list(history), err
	}
}

func usageTrend(svc spools.SpoolService) handlerFunc {
	return func(ctx context.Context, r *http.Request) (int, any, error) {
		n, err := days(r)
		if err != nil {
			return 0, nil, err
		}

		trend, err := svc.UsageTrend(ctx, n)
		return http.StatusOK, list(trend), err
	}
}
