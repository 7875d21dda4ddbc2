package experiment

// BatchStats are the measurements taken on one snapshot. Batch 0 is the
// unperturbed graph.
type BatchStats struct {
	Batch          int     `json:"batch"`
	NumEdges       int     `json:"num_edges"`
	Degrees        []int64 `json:"degrees"`
	Visits         []int64 `json:"visits"`
	Fires          []int64 `json:"fires"`
	Infections     []int64 `json:"infections"`
	LastFires      int64   `json:"last_fires"`
	LastInfections int64   `json:"last_infections"`

	// Attempts is the number of generation attempts for batch 0 and the
	// number of removal candidates tried for every later batch.
	Attempts int64 `json:"attempts"`
}

// Realization is the complete record of one seed.
type Realization struct {
	Seed               int64        `json:"seed"`
	Topology           string       `json:"topology"`
	RequestedVertices  int          `json:"requested_vertices"`
	NumVertices        int          `json:"num_vertices"` // Vertices of the generated graph
	NumEdges           int          `json:"num_edges"`    // Arcs of the generated graph
	GenerationAttempts int          `json:"generation_attempts"`
	Batches            []BatchStats `json:"batches"`
}

// Row identifies one batch of one realization.
type Row struct {
	Topology    string `json:"topology"`
	NumVertices int    `json:"n"`
	Seed        int64  `json:"seed"`
	Batch       int    `json:"batch"`
}

// Rows returns one row per batch, in batch order.
func (r *Realization) Rows() []Row {
	rows := make([]Row, len(r.Batches))
	for i, b := range r.Batches {
		rows[i] = Row{Topology: r.Topology, NumVertices: r.NumVertices, Seed: r.Seed, Batch: b.Batch}
	}
	return rows
}

// DegreeMatrix returns the (nbatches+1) x n degree matrix.
func (r *Realization) DegreeMatrix() [][]int64 {
	return r.matrix(func(b BatchStats) []int64 { return b.Degrees })
}

// VisitMatrix returns the (nbatches+1) x n walk visit matrix.
func (r *Realization) VisitMatrix() [][]int64 {
	return r.matrix(func(b BatchStats) []int64 { return b.Visits })
}

// FireMatrix returns the (nbatches+1) x n spike count matrix.
func (r *Realization) FireMatrix() [][]int64 {
	return r.matrix(func(b BatchStats) []int64 { return b.Fires })
}

// InfectionMatrix returns the (nbatches+1) x n infection count matrix.
func (r *Realization) InfectionMatrix() [][]int64 {
	return r.matrix(func(b BatchStats) []int64 { return b.Infections })
}

// LastFires returns the last-tick spike totals per batch.
func (r *Realization) LastFires() []int64 {
	return r.vector(func(b BatchStats) int64 { return b.LastFires })
}

// LastInfections returns the last-tick infection totals per batch.
func (r *Realization) LastInfections() []int64 {
	return r.vector(func(b BatchStats) int64 { return b.LastInfections })
}

// Attempts returns the attempt counters per batch.
func (r *Realization) Attempts() []int64 {
	return r.vector(func(b BatchStats) int64 { return b.Attempts })
}

func (r *Realization) matrix(col func(BatchStats) []int64) [][]int64 {
	m := make([][]int64, len(r.Batches))
	for i, b := range r.Batches {
		m[i] = col(b)
	}
	return m
}

func (r *Realization) vector(col func(BatchStats) int64) []int64 {
	v := make([]int64, len(r.Batches))
	for i, b := range r.Batches {
		v[i] = col(b)
	}
	return v
}
