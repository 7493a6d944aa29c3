package cfg

type Cfg struct {
	// Storage configuration
	DataDir string
	DBPath  string

	// Application configuration
	TeamsDir          string
	OutputPath        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	LookaheadDays     int
	MaxLookaheadDays  int
	APIAccessKey      string

	// Upstream data source
	SportsAPIUrl string
	FetchTimeout int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
