package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// DefaultHalfExtents задаёт габариты наблюдателя по умолчанию (0.6 x 1.8 x 0.6)
var DefaultHalfExtents = mgl64.Vec3{0.3, 0.9, 0.3}

// Observer представляет наблюдателя, вокруг которого идёт стриминг и для которого считаются столкновения
type Observer struct {
	ID          uuid.UUID
	Position    mgl64.Vec3 // Центр ограничивающего параллелепипеда
	Velocity    mgl64.Vec3
	Mask        mgl64.Vec3 // Маска свободных осей после последней проверки
	HalfExtents mgl64.Vec3
}

// NewObserver создаёт наблюдателя в позиции pos
func NewObserver(pos, halfExtents mgl64.Vec3) *Observer {
	return &Observer{
		ID:          uuid.New(),
		Position:    pos,
		Mask:        FreeMask,
		HalfExtents: halfExtents,
	}
}

// Bounds возвращает текущий ограничивающий параллелепипед
func (o *Observer) Bounds() AABB {
	return AABB{Center: o.Position, HalfExtents: o.HalfExtents}
}

// Accelerate изменяет скорость на a*dt
func (o *Observer) Accelerate(a mgl64.Vec3, dt float64) {
	o.Velocity = o.Velocity.Add(a.Mul(dt))
}

// Integrate сдвигает позицию: position += velocity ⊙ mask * dt
func (o *Observer) Integrate(dt float64) {
	o.Position = o.Position.Add(mulElem(o.Velocity, o.Mask).Mul(dt))
}

// Step выполняет проверку столкновений и затем перемещение
func (o *Observer) Step(src BlockSource, dt float64) {
	o.Velocity, o.Mask = Resolve(src, o.Bounds(), o.Velocity, dt)
	o.Integrate(dt)
}

// Grounded возвращает true, если последняя проверка заблокировала вертикальную ось
func (o *Observer) Grounded() bool {
	return o.Mask.Y() == 0
}
