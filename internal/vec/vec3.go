package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется и как ключ чанка, и как позиция вокселя.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает все компоненты на скаляр
func (v Vec3) Scale(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// FloorDiv покомпонентное деление с округлением вниз (n > 0)
func (v Vec3) FloorDiv(n int) Vec3 {
	return Vec3{
		X: FloorDiv(v.X, n),
		Y: FloorDiv(v.Y, n),
		Z: FloorDiv(v.Z, n),
	}
}

// Mod покомпонентный евклидов остаток, всегда в [0, n)
func (v Vec3) Mod(n int) Vec3 {
	return Vec3{
		X: Mod(v.X, n),
		Y: Mod(v.Y, n),
		Z: Mod(v.Z, n),
	}
}

// WithY возвращает копию вектора с заменённой координатой Y
func (v Vec3) WithY(y int) Vec3 {
	v.Y = y
	return v
}

// ChebyshevXZ возвращает расстояние Чебышёва по горизонтали (X и Z)
func (v Vec3) ChebyshevXZ(other Vec3) int {
	dx := Abs(v.X - other.X)
	dz := Abs(v.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// Less задаёт детерминированный порядок ключей (X, затем Y, затем Z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// FloorDiv делит a на b с округлением к минус бесконечности (b > 0)
func FloorDiv(a, b int) int {
	q := a / b
	if r := a % b; r < 0 {
		q--
	}
	return q
}

// Mod возвращает евклидов остаток от деления a на b (b > 0)
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Abs модуль целого числа
func Abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
