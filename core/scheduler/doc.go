package scheduler

// Package scheduler implements day-ahead planning for recurring medical
// trips. It expands standing orders (dialysis runs, repeat appointments)
// into per-driver assignments respecting shift coverage and daily trip
// caps. Plans can be exported to JSON or CSV.
