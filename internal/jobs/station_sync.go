package jobs

import (
	"context"

	"go.uber.org/zap"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db/repositories"
	gormModels "dwdcdc/internal/models/gorm"
)

// syncHistoricalStation ingests every historical file of one station.
// A failing file marks the station failed; the remaining files are still tried.
func (j *SyncJob) syncHistoricalStation(ctx context.Context, log *zap.SugaredLogger, d dataset.Descriptor, req Request, station int) StationResult {
	res := StationResult{Station: station, Outcome: constants.OutcomeSucceeded}

	paths, err := j.windowFiles(ctx, d, constants.SyncModeHistorical, station)
	if err != nil {
		log.Errorw("Failed to list historical files", "error", err)
		res.fail(err)
		return res
	}
	if len(paths) == 0 {
		log.Infow("No historical files listed")
		res.Outcome = constants.OutcomeSkippedEmpty
		return res
	}

	var covered string
	if req.SkipCovered {
		covered, err = j.readings.MaxTimestamp(ctx, d, station)
		if err != nil {
			log.Errorw("Failed to read stored coverage", "error", err)
			res.fail(err)
			return res
		}
	}

	fetched := 0
	for _, p := range paths {
		if covered != "" {
			if end, ok := d.HistoricalEndOf(fileName(p)); ok && dataset.CoversDate(covered, end) {
				log.Debugw("Historical file already covered", "file", fileName(p), "covered", covered)
				res.FilesSkipped++
				continue
			}
		}

		j.wait(ctx, fetched == 0)
		fetched++

		f, err := j.files.Fetch(ctx, d, p)
		if err != nil {
			log.Errorw("Failed to fetch historical file", "file", fileName(p), "error", err)
			res.fail(err)
			continue
		}
		res.Files++
		res.RowsParsed += int64(len(f.Rows))

		var written int64
		err = repositories.InTransaction(ctx, j.store.Gorm, func(readings *repositories.ReadingRepo, _ *repositories.BookmarkRepo) error {
			n, err := readings.InsertIgnore(ctx, d, f.Rows)
			written = n
			return err
		})
		if err != nil {
			log.Errorw("Failed to write historical file", "file", fileName(p), "error", err)
			res.fail(err)
			continue
		}
		res.RowsWritten += written
		j.metrics.FileIngested(d.Name, constants.SyncModeHistorical, int64(len(f.Rows)), written)
		log.Infow("Historical file ingested",
			"file", fileName(p),
			"rows_parsed", len(f.Rows),
			"rows_written", written,
			"first", f.MinTS,
			"last", f.MaxTS,
		)
	}
	return res
}

// syncRecentStation ingests the recent file of one station and advances its
// bookmark together with the rows.
func (j *SyncJob) syncRecentStation(ctx context.Context, log *zap.SugaredLogger, d dataset.Descriptor, _ Request, station int) StationResult {
	res := StationResult{Station: station, Outcome: constants.OutcomeSucceeded}

	bookmark, err := j.bookmarks.Get(ctx, d.Name, station)
	if err != nil {
		log.Errorw("Failed to read bookmark", "error", err)
		res.fail(err)
		return res
	}
	if bookmark != nil {
		res.Bookmark = *bookmark
		if *bookmark >= dataset.LatestCompleteToken(j.now(), d.TimestampDigits) {
			log.Infow("Station already up to date", "bookmark", *bookmark)
			res.Outcome = constants.OutcomeSkippedUpToDate
			return res
		}
	}

	paths, err := j.windowFiles(ctx, d, constants.SyncModeRecent, station)
	if err != nil {
		log.Errorw("Failed to list recent files", "error", err)
		res.fail(err)
		return res
	}
	if len(paths) == 0 {
		log.Infow("No recent files listed")
		res.Outcome = constants.OutcomeSkippedEmpty
		return res
	}

	for i, p := range paths {
		j.wait(ctx, i == 0)

		f, err := j.files.Fetch(ctx, d, p)
		if err != nil {
			log.Errorw("Failed to fetch recent file", "file", fileName(p), "error", err)
			res.fail(err)
			continue
		}
		res.Files++
		res.RowsParsed += int64(len(f.Rows))

		var written int64
		err = repositories.InTransaction(ctx, j.store.Gorm, func(readings *repositories.ReadingRepo, bookmarks *repositories.BookmarkRepo) error {
			n, err := readings.InsertIgnore(ctx, d, f.Rows)
			if err != nil {
				return err
			}
			written = n
			_, err = bookmarks.Advance(ctx, d.Name, station, f.MaxTS)
			return err
		})
		if err != nil {
			log.Errorw("Failed to write recent file", "file", fileName(p), "error", err)
			res.fail(err)
			continue
		}
		if f.MaxTS > res.Bookmark {
			res.Bookmark = f.MaxTS
		}
		res.RowsWritten += written
		j.metrics.FileIngested(d.Name, constants.SyncModeRecent, int64(len(f.Rows)), written)
		log.Infow("Recent file ingested",
			"file", fileName(p),
			"rows_parsed", len(f.Rows),
			"rows_written", written,
			"bookmark", res.Bookmark,
		)
	}
	return res
}

func toStationModels(records []dataset.StationRecord) []gormModels.Station {
	out := make([]gormModels.Station, 0, len(records))
	for _, r := range records {
		out = append(out, gormModels.Station{
			Station:     r.Station,
			DateFrom:    r.DateFrom,
			DateTo:      r.DateTo,
			IsoDateFrom: dataset.ToISO(r.DateFrom),
			IsoDateTo:   dataset.ToISO(r.DateTo),
			Elevation:   r.Elevation,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Name:        r.Name,
			State:       r.State,
			StateShort:  r.StateShort,
			Description: r.Description,
		})
	}
	return out
}
