// Package reminders - congrats.go содержит набор поздравлений.
package reminders

import (
	"math/rand"
	"strings"
	"sync"
)

var congratulations = []string{
	"Пусть этот день будет наполнен радостью и смехом!",
	"Желаем счастья, здоровья и успехов во всех начинаниях!",
	"Желаю исполнения всех желаний!",
	"Пусть жизнь будет сладкой, как торт!",
	"Солнечного настроения круглый год!",
	"Пусть удача всегда будет рядом!",
	"Крепкого здоровья и бодрости духа!",
	"Пусть сбудутся даже самые смелые мечты!",
	"Тепла в доме и гармонии в семье!",
	"Ярких впечатлений и незабываемых моментов!",
	"Легкости на жизненном пути!",
	"Пусть ангел-хранитель всегда оберегает!",
	"Улыбок, смеха и детского восторга!",
	"Пусть сердце будет открыто для чудес!",
	"Желаю стабильности и уверенности!",
	"Пусть счастье не знает границ!",
	"Желаю жить легко и радостно!",
	"Пусть сбываются даже несбыточные мечты!",
	"Пусть каждый день будет праздником!",
	"Успехов во всех начинаниях!",
	"Пусть жизнь будет вкусной, как торт!",
	"Желаю душевного тепла и уюта!",
	"Крепких нервов и стального здоровья!",
	"Легкого пути к своей мечте!",
	"Желаю ценить каждый момент!",
	"Крепкого чая и мягкого пледа!",
	"Желаю всегда верить в лучшее!",
	"Пусть фортуна будет на твоей стороне!",
	"Желаю простого человеческого счастья!",
	"Теплых встреч и добрых людей вокруг!",
	"Пусть сердце поет от радости!",
	"Легкого парения по жизни!",
	"Желаю жить в гармонии с собой!",
	"Пусть каждый день приносит подарки!",
	"Желаю оставаться молодым душой!",
	"Пусть мечты становятся реальностью!",
	"Пусть сбудутся все мечты и желания в этот особенный день!",
}

// Congratulator выбирает случайное поздравление. Безопасен для горутин.
type Congratulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCongratulator создаёт генератор поздравлений на источнике src.
func NewCongratulator(src rand.Source) *Congratulator {
	return &Congratulator{rnd: rand.New(src)}
}

// Pick возвращает одно поздравление из набора.
func (c *Congratulator) Pick() string {
	c.mu.Lock()
	i := c.rnd.Intn(len(congratulations))
	c.mu.Unlock()
	return strings.TrimSpace(congratulations[i])
}

// Congratulations возвращает копию набора поздравлений.
func Congratulations() []string {
	out := make([]string, len(congratulations))
	copy(out, congratulations)
	return out
}
