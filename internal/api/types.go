package api

// User identifies a logged-in account as reported by the service.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns the friendliest name available for greeting the user.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Detection is the result of one completed analysis call.
// Crop, IsHealthy and Treatment are optional extras the service may include;
// the client displays them when present but derives nothing from them.
type Detection struct {
	ID         int64   `json:"id"`
	Crop       string  `json:"crop,omitempty"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"` // fraction in [0,1]
	IsHealthy  bool    `json:"is_healthy,omitempty"`
	Treatment  string  `json:"treatment,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
}

// HistoryRecord is one past detection as stored by the service.
// Timestamps are kept as the service's strings; the client never re-sorts
// the collection, it is delivered most-recent-first.
type HistoryRecord struct {
	ID         int64   `json:"id"`
	Crop       string  `json:"crop,omitempty"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
	IsHealthy  bool    `json:"is_healthy,omitempty"`
	Treatment  string  `json:"treatment,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// Statistics is the server-precomputed dashboard summary.
type Statistics struct {
	TotalScans     int    `json:"total_scans"`
	HealthyPlants  int    `json:"healthy_plants"`
	DiseasedPlants int    `json:"diseased_plants"`
	LastUpdated    string `json:"last_updated,omitempty"`
}

// ActivityItem is one entry of the dashboard activity timeline. Type is
// "detection" for detection events (Crop/Disease/Confidence set) or another
// value ("register", "login", ...) for generic events carrying a Description.
type ActivityItem struct {
	ID          int64   `json:"id,omitempty"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Crop        string  `json:"crop,omitempty"`
	Disease     string  `json:"disease,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// IsDetection reports whether the item represents a detection event.
func (a ActivityItem) IsDetection() bool { return a.Type == "detection" }

// HistoryReport is the full payload of one history fetch. Statistics and
// ActivityTimeline are optional; callers fall back to deriving them from
// History when absent.
type HistoryReport struct {
	History          []HistoryRecord `json:"history"`
	Statistics       *Statistics     `json:"statistics,omitempty"`
	ActivityTimeline []ActivityItem  `json:"activity_timeline,omitempty"`
}

// RegisterRequest carries the fields of a registration call.
// FirstName and LastName are optional.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type detectRequest struct {
	Image string `json:"image"`
}

type userResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type detectResponse struct {
	Detection Detection `json:"detection"`
	Message   string    `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
