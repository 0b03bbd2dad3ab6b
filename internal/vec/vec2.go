package vec

// Vec2 представляет 2D координаты (например, клетку в текстурном атласе)
type Vec2 struct {
	X, Y int
}
