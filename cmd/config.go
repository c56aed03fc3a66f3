package cmd

// Config carries process configuration resolved from the environment.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr         string
	RedisStreamMaxLen int64

	// Engine tuning. ReserveBattery is the dispatch eligibility floor,
	// CostPerKm the battery fraction one kilometer consumes, StepKm the
	// distance covered per motion tick, ChargeRate the battery fraction
	// restored per tick while docked.
	ReserveBattery float64
	CostPerKm      float64
	StepKm         float64
	ChargeRate     float64
}
