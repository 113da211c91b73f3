package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Para su uso se debe posicionar en la carpeta scripts
// > go run update_config.go ip_kernel 192.168.1.102
// > go run update_config.go port_kernel 9001 devices.tick_hz 100 devices.keyboard tty
//
// Las claves anidadas se escriben separadas por punto.

func main() {
	if len(os.Args) < 3 || len(os.Args)%2 != 1 {
		fmt.Println("Uso: update_config <clave_1> <valor_1> [<clave_2> <valor_2> ...]")
		fmt.Println("Ejemplo: update_config ip_kernel 192.168.0.20 devices.tick_hz 100")
		return
	}

	updates := make(map[string]string)
	for i := 1; i < len(os.Args); i += 2 {
		updates[os.Args[i]] = os.Args[i+1]
	}

	fmt.Println("Valores a actualizar:")
	for k, v := range updates {
		fmt.Printf("  %s: %v\n", k, v)
	}

	configPath := filepath.Join("..", "kernel", "configs")
	err := filepath.Walk(configPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Printf("  Error al acceder %s: %v\n", path, err)
			return nil
		}
		ext := filepath.Ext(path)
		if info.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		if err := updateFile(path, updates); err != nil {
			fmt.Printf("  Error en %s: %v\n", path, err)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Error al buscar archivos en la carpeta %s: %v\n", configPath, err)
	}

	fmt.Println("\nProceso de actualización de configuraciones finalizado.")
}

// updateFile trabaja sobre el árbol de nodos para no perder el orden ni los comentarios del archivo.
func updateFile(path string, updates map[string]string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("yaml inválido: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	modified := false
	for key, value := range updates {
		node := find(doc.Content[0], strings.Split(key, "."))
		if node == nil || node.Kind != yaml.ScalarNode {
			continue
		}
		node.Value = value
		// Que yaml vuelva a inferir el tipo del valor nuevo.
		node.Tag = ""
		node.Style = 0
		fmt.Printf("    Modificada '%s' en %s a '%v'\n", key, path, value)
		modified = true
	}
	if !modified {
		fmt.Printf("  No se encontraron claves a actualizar en %s.\n", path)
		return nil
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return err
	}
	fmt.Printf("  El archivo %s ha sido actualizado correctamente.\n", path)
	return nil
}

func find(node *yaml.Node, keys []string) *yaml.Node {
	if len(keys) == 0 {
		return node
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == keys[0] {
			return find(node.Content[i+1], keys[1:])
		}
	}
	return nil
}
