package fetch

// State tells whether an asset had to be downloaded
type State int

const (
	StateDownloaded State = iota
	StateAlreadyPresent
)

func (s State) String() string {
	if s == StateAlreadyPresent {
		return "already_present"
	}
	return "downloaded"
}

// MediaKind is the type of a media reference found in HTML
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// LocalAsset is a remote file that now exists on disk
type LocalAsset struct {
	// Path is the full local path
	Path     string
	Filename string
	State    State
	Size     int64
}

// MediaReference is a remote asset referenced from rendered HTML
type MediaReference struct {
	URI      string
	Dir      string
	Filename string
	// Index is the position of the reference within its fragment.
	Index int
	Kind  MediaKind
}

// ProgressReporter receives download events
type ProgressReporter interface {
	StartDownload(name string)
	SkipDownload(name string)
	// Progress reports bytes transferred so far. total is -1 when unknown.
	Progress(name string, downloaded, total int64)
	CompleteDownload(name string, size int64)
	FailDownload(name string, err error)
}

type nopProgress struct{}

func (nopProgress) StartDownload(string)           {}
func (nopProgress) SkipDownload(string)            {}
func (nopProgress) Progress(string, int64, int64)  {}
func (nopProgress) CompleteDownload(string, int64) {}
func (nopProgress) FailDownload(string, error)     {}

type multiProgress []ProgressReporter

// MultiProgress fans events out to several reporters, skipping nil ones
func MultiProgress(reporters ...ProgressReporter) ProgressReporter {
	var m multiProgress
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiProgress) StartDownload(name string) {
	for _, r := range m {
		r.StartDownload(name)
	}
}

func (m multiProgress) SkipDownload(name string) {
	for _, r := range m {
		r.SkipDownload(name)
	}
}

func (m multiProgress) Progress(name string, downloaded, total int64) {
	for _, r := range m {
		r.Progress(name, downloaded, total)
	}
}

func (m multiProgress) CompleteDownload(name string, size int64) {
	for _, r := range m {
		r.CompleteDownload(name, size)
	}
}

func (m multiProgress) FailDownload(name string, err error) {
	for _, r := range m {
		r.FailDownload(name, err)
	}
}
