// Package prediction estimates the risk that a trip misses its scheduled
// pickup window. Risk levels are advisory: they color the dispatch board
// and never gate a transition.
package prediction
