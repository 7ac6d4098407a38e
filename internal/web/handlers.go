package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/export"
	"github.com/KaramelBytes/tablelens/internal/logging"
	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/render"
	"github.com/KaramelBytes/tablelens/internal/session"
)

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message string              `json:"message"`
	Dataset session.DatasetInfo `json:"dataset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload replaces the session dataset with the posted file.
// A rejected file leaves the previous dataset in place.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var mb *http.MaxBytesError
		if !errors.As(err, &mb) {
			err = fmt.Errorf("%w: %v", errNoFile, err)
		}
		s.respondError(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	ds, err := s.sess.Upload(header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), s.log, zap.String("dataset_id", ds.ID)).
		Debug("upload accepted", zap.Int64("bytes", header.Size))

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message: session.LoadedMessage,
		Dataset: session.DatasetInfo{ID: ds.ID, Name: ds.Name, Rows: ds.Rows(), Cols: ds.Width(), Columns: ds.Names()},
	})
}

// handleDataset returns the full dashboard view, including the empty state.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.Render(s.sess.Snapshot()))
}

// handleProfile returns the profile report as JSON, or Markdown with format=markdown.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		s.respondError(w, r, errNoDataset)
		return
	}
	head, err := parseIntParam(r, "head", st.HeadRows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rep := profile.New(st.Dataset).Report(head)
	if strings.EqualFold(r.URL.Query().Get("format"), "markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rep.Markdown()))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleCategories returns value counts for ?column= (default first
// categorical column) and remembers the choice.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		s.respondError(w, r, errNoDataset)
		return
	}
	n, err := parseIntParam(r, "n", st.TopN)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	column := strings.TrimSpace(r.URL.Query().Get("column"))
	counts, err := profile.TopValues(st.Dataset, column, n)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cols := profile.CategoricalColumns(st.Dataset)
	if column == "" {
		column = cols[0]
	}
	s.sess.Select(func(next *session.State) { next.CategoricalColumn = column })
	writeJSON(w, http.StatusOK, session.CategoricalView{Columns: cols, Column: column, Counts: counts})
}

// chartSpec builds the chart for the request. With ?kind= the query
// parameters replace the session's selection; without it the stored one is used.
func (s *Server) chartSpec(r *http.Request) (chart.Spec, error) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		return nil, errNoDataset
	}
	q := r.URL.Query()
	if raw := q.Get("kind"); raw != "" {
		kind, err := chart.ParseKind(raw)
		if err != nil {
			return nil, err
		}
		sel, err := chart.SelectionFromParams(kind, q.Get)
		if err != nil {
			return nil, err
		}
		st.Chart = sel
		sp, err := chart.Configure(st.Dataset, st.ChartSelection())
		if err != nil {
			return nil, err
		}
		// only a selection that configures is kept
		s.sess.Select(func(next *session.State) { next.Chart = sel })
		return sp, nil
	}
	return chart.Configure(st.Dataset, st.ChartSelection())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	spec, err := s.chartSpec(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// handleChartPNG renders the same chart as handleChart to a PNG image.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	width, err := parseIntParam(r, "width", render.DefaultWidth)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	height, err := parseIntParam(r, "height", render.DefaultHeight)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	size := render.Size{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	spec, err := s.chartSpec(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, spec, size); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCorrelationHeatmap(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		s.respondError(w, r, errNoDataset)
		return
	}
	hm, err := chart.CorrelationHeatmap(profile.New(st.Dataset).CorrelationMatrix())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

// handleMissingHeatmap returns the missing-value heatmap, or the
// no-missing message when every cell is present.
func (s *Server) handleMissingHeatmap(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		s.respondError(w, r, errNoDataset)
		return
	}
	p := profile.New(st.Dataset)
	mv := session.MissingView{Report: p.MissingReport()}
	if len(mv.Report) == 0 {
		mv.Message = session.NoMissingMessage
	} else {
		mv.Heatmap = chart.MissingHeatmap(p.MissingMask())
	}
	writeJSON(w, http.StatusOK, mv)
}

// handleExport streams the whole dataset as a data.json attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	if !st.Loaded() {
		s.respondError(w, r, errNoDataset)
		return
	}
	data, err := export.JSON(st.Dataset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseIntParam reads a non-negative integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s %q must be a non-negative integer", chart.ErrInvalidOption, name, raw)
	}
	return v, nil
}
