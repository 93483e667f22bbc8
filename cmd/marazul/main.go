// Команда marazul запускает клиент витрины MarAzul для терминала: каталог, корзина,
// вход и оформление заказа. Состояние хранится локально между запусками.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
