package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/vitrine-empreendedores/config"
	"github.com/oksasatya/vitrine-empreendedores/internal/infrastructure/memory"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Ensure the base categories exist (same list as the seed migration)
	for _, c := range memory.DefaultCategories() {
		if _, err := db.Exec(`
			INSERT INTO tb_categoria (tb_categoria_nome) VALUES ($1)
			ON CONFLICT (tb_categoria_nome) DO NOTHING
		`, c.Name); err != nil {
			log.Fatalf("failed to upsert category %q: %v", c.Name, err)
		}
	}

	email := "padaria.sol@example.com"
	password := "password123"
	name := "Padaria Sol"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO tb_empreendedor (
			tb_empreendedor_nome, tb_empreendedor_descricao_curta, tb_empreendedor_descricao_completa,
			tb_empreendedor_contato_whatsapp, tb_empreendedor_contato_email, tb_empreendedor_senha
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lower(tb_empreendedor_contato_email)) DO UPDATE
			SET tb_empreendedor_nome = EXCLUDED.tb_empreendedor_nome,
			    tb_empreendedor_senha = EXCLUDED.tb_empreendedor_senha,
			    updated_at = now()
		RETURNING tb_empreendedor_id
	`, name, "Pães artesanais e café da manhã", "Fornada diária desde 1998.", int64(11999990000), email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed entrepreneur: %v", err)
	}
	fmt.Printf("seeded entrepreneur: id=%d email=%s name=%s password=%s\n", id, email, name, password)

	// Link the demo entrepreneur to its categories
	if _, err := db.Exec(`DELETE FROM tb_empreendedor_categoria WHERE tb_empreendedor_id = $1`, id); err != nil {
		log.Fatalf("failed to reset categories: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO tb_empreendedor_categoria (tb_categoria_id, tb_empreendedor_id)
		SELECT tb_categoria_id, $1 FROM tb_categoria
		WHERE tb_categoria_nome IN ('Alimentação', 'Artesanato')
	`, id); err != nil {
		log.Fatalf("failed to link categories: %v", err)
	}
	fmt.Println("linked demo entrepreneur to Alimentação and Artesanato")
}
