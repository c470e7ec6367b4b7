package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Session describes an event session in a transport-friendly format.
type Session struct {
	ID            string `json:"id" yaml:"id"`
	GuildID       string `json:"guildId" yaml:"guild_id"`
	InitiatorID   string `json:"initiatorId" yaml:"initiator_id"`
	InitiatorName string `json:"initiatorName" yaml:"initiator_name"`
	Room          string `json:"room" yaml:"room"`
	JoinURL       string `json:"joinUrl,omitempty" yaml:"join_url,omitempty"`
	Departure     string `json:"departure,omitempty" yaml:"departure,omitempty"`
	Status        string `json:"status" yaml:"status"`
	Recipients    int    `json:"recipients" yaml:"recipients"`
	Occupancy     int    `json:"occupancy" yaml:"occupancy"`
	Reason        string `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// ProcessStats reports resource usage of the daemon process.
type ProcessStats struct {
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	Threads    int32   `json:"threads"`
	Goroutines int     `json:"goroutines"`
}

// DatabaseHealth summarises the SQLite store.
type DatabaseHealth struct {
	Path          string         `json:"path"`
	Exists        bool           `json:"exists"`
	SizeBytes     int64          `json:"sizeBytes"`
	SchemaVersion int            `json:"schemaVersion"`
	Sessions      map[string]int `json:"sessions"`
	Kicks         int            `json:"kicks"`
	Error         string         `json:"error,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	StartedAt      string         `json:"startedAt,omitempty"`
	ActiveSessions int            `json:"activeSessions"`
	DatabasePath   string         `json:"databasePath"`
	LockFilePath   string         `json:"lockFilePath"`
	LogPath        string         `json:"logPath,omitempty"`
	Process        ProcessStats   `json:"process"`
	Database       DatabaseHealth `json:"database"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
