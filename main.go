// Йоу, чат! Сьогодні ми будемо розбирати як запустити гравітаційну симуляцію!
// Це ліцензія AGPL - означає що наш код має бути відкритим, і всі модифікації теж.
// Це важливо для спільноти, щоб всі могли вчитися і покращувати код!

// Пакет main - це точка входу нашої програми, звідси все починається!
package main

import (
	// context потрібен щоб зупинити симуляцію по Ctrl+C
	"context"
	// flag - це пакет для роботи з командним рядком, будемо використовувати для налаштувань
	"flag"
	"os"
	"os/signal"
	// debug дозволяє отримати інформацію про збірку програми
	"runtime/debug"
	// strings потрібен для роботи з текстом, будемо використовувати для форматування помилок
	"strings"
	"syscall"

	// toml - крутий формат для конфігів, як JSON але читабельніший
	"github.com/BurntSushi/toml"
	// zap - мегашвидкий логер, набагато швидший за fmt.Printf
	"go.uber.org/zap"

	// Наше ядро: сценарій + фізика + гравітаційний світ
	"GravityCore/sim"
)

// isDebug - флаг який можна включити при запуску через -debug
// В дебаг режимі буде більше логів і інформації для розробки
var isDebug = flag.Bool("debug", false, "Enable debug log output")

// configPath - звідки читати налаштування
var configPath = flag.String("config", "config.toml", "Path to the config file")

func main() {
	// Парсимо командний рядок - шукаємо наші флаги
	flag.Parse()

	// Створюємо логер - він буде записувати все що відбувається в симуляції
	var logger *zap.Logger
	if *isDebug {
		logger = unwrap(zap.NewDevelopment())
	} else {
		logger = unwrap(zap.NewProduction())
	}

	// Тут ми закриваємо логер, щоб всі логи записались
	defer func(logger *zap.Logger) {
		// Sync на stderr інколи повертає EINVAL, ігноруємо
		_ = logger.Sync()
	}(logger)

	logger.Info("Simulation start")
	// Виводимо інформацію про версію і налаштування збірки
	printBuildInfo(logger)
	defer logger.Info("Simulation exit")

	// Читаємо налаштування з файлу config.toml
	config, err := readConfig(*configPath)
	if err != nil {
		logger.Error("Read config fail", zap.Error(err))
		return
	}

	// Збираємо симуляцію: читаємо сценарій і створюємо тіла
	s, err := sim.New(logger, config)
	if err != nil {
		logger.Error("Init simulation fail", zap.Error(err))
		return
	}

	// Ctrl+C або SIGTERM зупиняють симуляцію акуратно
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx); err != nil {
		logger.Error("Simulation error", zap.Error(err))
	}
}

// printBuildInfo виводить інформацію про збірку
// Це допомагає знайти проблеми з версіями бібліотек
func printBuildInfo(logger *zap.Logger) {
	binaryInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string)
	for _, v := range binaryInfo.Settings {
		settings[v.Key] = v.Value
	}
	logger.Debug("Build info", zap.Any("settings", settings))
}

// readConfig читає конфіг з файлу
// Ключі, яких немає у файлі, лишаються за замовчуванням
// Якщо знайдемо невідомі налаштування - повернемо помилку
func readConfig(path string) (sim.Config, error) {
	c := sim.DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return sim.Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return sim.Config{}, err
	}

	return c, nil
}

// errUnknownConfig - це список невідомих налаштувань
// Коли знаходимо щось чого не очікували в конфігу
type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}

// unwrap - хелпер функція яка спрощує обробку помилок
// Якщо є помилка - відразу панікуємо
func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
