package disabled

type T struct{ x int }

func race() {
	t := &T{}
	go func() { t.x = 1 }()
	t.x = 2
}
