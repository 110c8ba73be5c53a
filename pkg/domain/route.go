package domain

import "fmt"

// RouteKey уникальный ключ маршрута
type RouteKey struct {
	From string
	To   string
	Mode string
}

// String возвращает строковое представление ключа маршрута
func (k RouteKey) String() string {
	return fmt.Sprintf("%s->%s[%s]", k.From, k.To, k.Mode)
}

// Lane возвращает ключ направления без учёта вида транспорта
func (k RouteKey) Lane() LaneKey {
	return LaneKey{From: k.From, To: k.To}
}

// LaneKey направление перевозки (пара заводов)
type LaneKey struct {
	From string
	To   string
}

// String возвращает строковое представление направления
func (k LaneKey) String() string {
	return fmt.Sprintf("%s->%s", k.From, k.To)
}

// Route маршрут перевозки между двумя заводами
type Route struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Mode            string  `json:"mode"`
	TransportClass  string  `json:"transport_class,omitempty"`
	CostPerTrip     float64 `json:"cost_per_trip"`
	CapacityPerTrip float64 `json:"capacity_per_trip"`
	SBQ             float64 `json:"sbq"`
	Enabled         bool    `json:"enabled"`
}

// Key возвращает ключ маршрута
func (r *Route) Key() RouteKey {
	return RouteKey{From: r.From, To: r.To, Mode: r.Mode}
}

// MaxShipment возвращает максимальный объём отгрузки за trips рейсов
func (r *Route) MaxShipment(trips float64) float64 {
	return trips * r.CapacityPerTrip
}

// MinShipment возвращает минимальный объём отгрузки за trips рейсов
func (r *Route) MinShipment(trips float64) float64 {
	return trips * r.SBQ
}
