// Package splitter writes a stream of lines to a sequence of split files.
//
// A Writer keeps one file open at a time. It opens a new file when the
// line or bulk count of the current file reaches its threshold, and every
// time the caller sets new labels. File names come from a split.PathBuilder
// fed with the active labels and a strictly increasing file id.
//
// Every created file is recorded as an index row. Close writes all rows to
// index_file.csv under the base path in one append:
//
//	file_id,file_name,,
//	000001,orders_eu_000001.csv,orders,eu
//	000002,orders_us_000002.csv,orders,us
//
// The index only exists after Close; a process that dies earlier leaves
// split files without an index.
//
// # Writing
//
// Write splits its input on newlines and counts complete lines. WriteLines
// writes a bulk: the lines are written as given and the bulk counter
// increases once.
//
//	cfg := splitter.DefaultConfig()
//	cfg.BasePath = "/data/out"
//	cfg.LinesPerFile = 100000
//
//	err := splitter.With(cfg, func(w *splitter.Writer) error {
//	    if err := w.SetLabels([]string{"orders", "eu"}); err != nil {
//	        return err
//	    }
//	    return w.WriteStrings(lines)
//	})
//
// # Sinks
//
// Files are opened through a split.SinkFactory. The default factory writes
// to the local filesystem in append mode; object store factories from the
// storage package upload each file when it is closed.
//
// # Thread Safety
//
// A Writer serialises its methods with a mutex. It is still a single
// output set: use separate writers over separate base paths for parallel
// segments.
package splitter
