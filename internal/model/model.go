package model

import (
	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
	"github.com/LeonardoBeccarini/fertigation/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	Stage                 = entities.Stage
	Recipe                = entities.Recipe
	RecipeCalculatedEvent = messages.RecipeCalculatedEvent
)
