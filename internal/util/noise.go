package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// NoiseField задаёт детерминированное скалярное поле R³ -> [-1, 1]
type NoiseField interface {
	Sample(x, y, z float64) float64
}

// Параметры шума Перлина по умолчанию
const (
	PerlinAlpha   = 2.0 // Сглаживание шума
	PerlinBeta    = 2.0 // Частота шума
	PerlinOctaves = 3   // Количество октав
)

// PerlinField реализует шум Перлина с фиксированным сидом.
// Генератор perlin.Perlin после создания только читается, поэтому безопасен для горутин.
type PerlinField struct {
	Seed  int64
	noise *perlin.Perlin
}

// NewPerlinField создаёт поле шума Перлина с указанным сидом
func NewPerlinField(seed int64) *PerlinField {
	return &PerlinField{
		Seed:  seed,
		noise: perlin.NewPerlin(PerlinAlpha, PerlinBeta, PerlinOctaves, seed),
	}
}

// Sample возвращает значение шума, ограниченное диапазоном [-1, 1]
func (p *PerlinField) Sample(x, y, z float64) float64 {
	return Clamp(p.noise.Noise3D(x, y, z), -1, 1)
}

// ConstantField всегда возвращает одно и то же значение (удобно в тестах)
type ConstantField float64

// Sample возвращает константу, ограниченную диапазоном [-1, 1]
func (c ConstantField) Sample(_, _, _ float64) float64 {
	return Clamp(float64(c), -1, 1)
}

// FuncField адаптирует обычную функцию к NoiseField
type FuncField func(x, y, z float64) float64

// Sample вызывает функцию и ограничивает результат
func (f FuncField) Sample(x, y, z float64) float64 {
	return Clamp(f(x, y, z), -1, 1)
}

// Clamp ограничивает v отрезком [lo, hi]; NaN превращается в lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
