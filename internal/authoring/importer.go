package authoring

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// Importer uploads question files. The backend parses and appends the
// rows itself; afterwards the session reloads the exam instead of merging
// the result locally.
type Importer struct {
	examID  string
	backend Backend
	ed      *Editor
	log     logrus.FieldLogger
}

func NewImporter(examID string, b Backend, ed *Editor, log logrus.FieldLogger) *Importer {
	return &Importer{examID: examID, backend: b, ed: ed, log: log}
}

// ImportFile uploads body as filename. progress, when set, receives the
// upload percentage. Rows the backend rejected are listed in the result;
// a partial import is not an error.
func (im *Importer) ImportFile(ctx context.Context, filename string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error) {
	ed := im.ed
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.hdr.status() == exam.StatusPublished {
		return exam.ImportResult{}, exam.ErrPublishedFrozen
	}
	// pending edits have to land before the backend appends to the set
	if err := ed.auto.Flush(ctx); err != nil {
		return exam.ImportResult{}, err
	}
	if progress == nil {
		progress = func(int) {}
	}

	res, err := im.backend.Import(ctx, im.examID, filename, body, size, progress)
	if err != nil {
		return exam.ImportResult{}, &exam.PersistError{Op: "import", Err: err}
	}
	log := im.log.WithFields(logrus.Fields{
		"file":    filename,
		"success": res.SuccessCount,
		"failed":  res.FailedCount,
	})
	if res.Mixed() {
		log.Warn("import partially failed")
	} else {
		log.Info("import finished")
	}

	e, err := im.backend.FetchExam(ctx, im.examID)
	if err != nil {
		return res, &exam.PersistError{Op: "reload exam", Err: err}
	}
	ed.hdr.set(e)
	ed.coll.Replace(e.Questions)
	ed.hist.Clear()
	ed.writer.Rebase()
	return res, nil
}
