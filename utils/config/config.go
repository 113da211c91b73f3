package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig lee el archivo de configuración y retorna sus valores en la variable config. En caso de error
// se produce un panic, ya que ningún módulo puede arrancar sin su configuración.
//
// El formato se elige a partir de la extensión: ".yaml" o ".yml" se decodifican como YAML, cualquier otra
// extensión como JSON.
//
// Parámetros:
//   - filePath: ubicacion donde se encuentra el archivo de configuracion
//   - config: puntero a cualquier tipo de estructura
//
// Ejemplo:
//
//	type TestConfig struct {
//		Name  string `json:"name" yaml:"name"`
//		Value int    `json:"value" yaml:"value"`
//	}
//	func main() {
//		var testConfig TestConfig
//		config.InitConfig("./test.yaml", &testConfig)
//	}
func InitConfig(filePath string, config interface{}) {
	if err := LoadConfig(filePath, config); err != nil {
		panic(fmt.Errorf("error al configurar el archivo %s: %w", filePath, err))
	}
}

// LoadConfig es la variante de InitConfig que devuelve el error en lugar de finalizar.
func LoadConfig(filePath string, config interface{}) error {
	configFile, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer configFile.Close()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(configFile).Decode(config); err != nil {
			return fmt.Errorf("yaml inválido: %w", err)
		}
	default:
		if err := json.NewDecoder(configFile).Decode(config); err != nil {
			return fmt.Errorf("json inválido: %w", err)
		}
	}
	return nil
}
