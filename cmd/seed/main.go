package main

import (
	"context"
	"errors"
	"log"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/internal/repository/implementation"

	"github.com/fatih/color"
)

// Demo content so a fresh install has something to click through,
// including the subtopic the built-in diagnostic script recommends.
var seedTopics = map[string][]string{
	"ОЦО ЦБ": {
		"не поступила задача на подписание МОЛу",
		"настройка маршрутизации",
	},
	"Зарплата": {
		"расчет аванса",
	},
	"Методологии": {
		"Waterfall",
		"Agile",
	},
}

func main() {
	cfg := config.Load()

	repo, err := implementation.NewFileKnowledgeRepository(
		cfg.Knowledge.TextsPath,
		cfg.Knowledge.ImagesPath,
		cfg.Knowledge.FilesPath,
		cfg.Knowledge.MaterialsFile,
	)
	if err != nil {
		log.Fatalf("failed to open knowledge base: %v", err)
	}

	ctx := context.Background()
	for topic, subtopics := range seedTopics {
		err := repo.AddTopic(ctx, topic)
		switch {
		case errors.Is(err, contract.ErrTopicExists):
			color.Yellow("~ topic %q already exists", topic)
		case err != nil:
			color.Red("✗ topic %q: %v", topic, err)
			continue
		default:
			color.Green("✓ topic %q", topic)
		}

		for _, subtopic := range subtopics {
			err := repo.AddSubtopic(ctx, topic, subtopic)
			switch {
			case errors.Is(err, contract.ErrSubtopicExists):
				color.Yellow("  ~ subtopic %q already exists", subtopic)
			case err != nil:
				color.Red("  ✗ subtopic %q: %v", subtopic, err)
			default:
				color.Green("  ✓ subtopic %q", subtopic)
			}
		}
	}

	color.Cyan("Knowledge base seeded at %s", cfg.Knowledge.BasePath)
}
