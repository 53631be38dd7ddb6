// Copyright 2024 The Brain B2B Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errlog carries the numeric server-side fault catalog. Faults are
// appended to error.log in the working directory, mirrored to the structured
// logger, and fatal codes terminate the process.
package errlog

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Log writes catalog faults for one process.
type Log struct {
	pid    int
	file   string
	logger *slog.Logger
	exit   func(int)
}

// New creates a fault log rooted at dir.
func New(dir string, logger *slog.Logger) *Log {
	return &Log{
		pid:    os.Getpid(),
		file:   dir + "/error.log",
		logger: logger,
		exit:   os.Exit,
	}
}

// Path is the location of error.log.
func (l *Log) Path() string {
	return l.file
}

// Write appends one fault record and mirrors it to the structured logger.
func (l *Log) Write(code uint32, detail string) {
	now := time.Now().Format("2006.01.02 15:04:05.000000000 -07:00")
	var line string
	if detail != "" {
		line = fmt.Sprintf("%s PID=%d Помилка %d: %s. Опис: %s\n", now, l.pid, code, Text(code), detail)
	} else {
		line = fmt.Sprintf("%s PID=%d Помилка %d: %s.\n", now, l.pid, code, Text(code))
	}
	l.logger.Error(Text(code), "code", code, "detail", detail)
	file, err := os.OpenFile(l.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	file.WriteString(line)
}

// Fatal writes the fault and terminates the process with exit code 1.
// Codes at 600 and above are recoverable and must go through Write instead.
func (l *Log) Fatal(code uint32, detail string) {
	l.Write(code, detail)
	l.exit(1)
}

// Recoverable reports whether the code may be retried instead of killing
// the process. Only the database codes qualify.
func Recoverable(code uint32) bool {
	return code >= 600
}

// Text resolves a catalog code to its operator message.
func Text(code uint32) string {
	if text, ok := catalog[code]; ok {
		return text
	}
	return "Невідома помилка"
}

var catalog = map[uint32]string{
	100: "Відсутній файл конфігурації",
	101: "Файл конфігурації має невірний формат",
	102: "В файлі конфігурації відсутній параметр 'port' (Порт TCP запуску сервера генерації прайсів B2B)",
	103: "В файлі конфігурації параметр 'port' має невірний формат (Число від 1 до 65536)",
	104: "В файлі конфігурації відсутній параметр 'time_zone'",
	105: "В файлі конфігурації параметр 'time_zone' має невірний формат (https://en.wikipedia.org/wiki/List_of_tz_database_time_zones)",
	106: "В файлі конфігурації відсутній параметр 'max' (Кількість потоків на обробку прайсів)",
	107: "В файлі конфігурації параметр 'max' має невірний формат (Число від 1 до 255)",
	108: "В файлі конфігурації відсутній параметр 'db_log_host' (Хост бази даних MySql логістики товарів)",
	109: "В файлі конфігурації параметр 'db_log_host' має невірний формат",
	110: "В файлі конфігурації відсутній параметр 'db_log_port' (Порт бази даних MySql логістики товарів)",
	111: "В файлі конфігурації параметр 'db_log_port' має невірний формат (Число від 1 до 65536)",
	112: "В файлі конфігурації відсутній параметр 'db_log_user' (Користувач бази даних MySql логістики товарів)",
	113: "В файлі конфігурації параметр 'db_log_user' має невірний формат",
	114: "В файлі конфігурації відсутній параметр 'db_log_pwd' (Пароль користувача бази даних MySql логістики товарів)",
	115: "В файлі конфігурації параметр 'db_log_pwd' має невірний формат",
	116: "В файлі конфігурації відсутній параметр 'db_log_name' (Назва бази даних MySql логістики товарів)",
	117: "В файлі конфігурації параметр 'db_log_name' має невірний формат",
	118: "В файлі конфігурації відсутній параметр 'db_b2b_host' (Хост бази даних MySql B2B портала)",
	119: "В файлі конфігурації параметр 'db_b2b_host' має невірний формат",
	120: "В файлі конфігурації відсутній параметр 'db_b2b_port' (Порт бази даних MySql B2B портала)",
	121: "В файлі конфігурації параметр 'db_b2b_port' має невірний формат (Число від 1 до 65536)",
	122: "В файлі конфігурації відсутній параметр 'db_b2b_user' (Користувач бази даних MySql B2B портала)",
	123: "В файлі конфігурації параметр 'db_b2b_user' має невірний формат",
	124: "В файлі конфігурації відсутній параметр 'db_b2b_pwd' (Пароль користувача бази даних MySql B2B портала)",
	125: "В файлі конфігурації параметр 'db_b2b_pwd' має невірний формат",
	126: "В файлі конфігурації відсутній параметр 'db_b2b_name' (Назва бази даних MySql B2B портала)",
	127: "В файлі конфігурації параметр 'db_b2b_name' має невірний формат",
	128: "В файлі конфігурації відсутній параметр 'db_local_host' (Хост бази даних MySql логіювання запитів)",
	129: "В файлі конфігурації параметр 'db_local_host' має невірний формат",
	130: "В файлі конфігурації відсутній параметр 'db_local_port' (Порт бази даних MySql логіювання запитів)",
	131: "В файлі конфігурації параметр 'db_local_port' має невірний формат (Число від 1 до 65536)",
	132: "В файлі конфігурації відсутній параметр 'db_local_user' (Користувач бази даних MySql логіювання запитів)",
	133: "В файлі конфігурації параметр 'db_local_user' має невірний формат",
	134: "В файлі конфігурації відсутній параметр 'db_local_pwd' (Пароль користувача бази даних MySql логіювання запитів)",
	135: "В файлі конфігурації параметр 'db_local_pwd' має невірний формат",
	136: "В файлі конфігурації відсутній параметр 'db_local_name' (Назва бази даних MySql логіювання запитів)",
	137: "В файлі конфігурації параметр 'db_local_name' має невірний формат",
	138: "В файлі конфігурації відсутній параметр 'irc' (Порт TCP управління сервера генерації прайсів B2B)",
	139: "В файлі конфігурації параметр 'irc' має невірний формат (Число від 1 до 65536)",
	140: "В файлі конфігурації відсутній параметр 'salt'",
	141: "В файлі конфігурації параметр 'salt' має невірний формат",

	200: "Помилка запуска сервера",
	201: "Помилка при з’єднання до IRC сервера",
	202: "Не вдалося приднатися до IRC сервера",
	203: "Помилка відправлення сигналу до IRC сервера",
	204: "Не вдалося встановити timeout читання даних від IRC сервера",
	205: "Не вдалося прочитати дані від IRC сервера",
	206: "Дані відсутні при читанні від IRC сервера",
	207: "Невірні дані отримані при читанні від IRC сервера",
	208: "Невірні дані отримані при читанні від IRC сервера",

	300: "Відсутні права для запуска IRC сервера",
	301: "Сокет IRC занятий",
	302: "Сокет IRC недоступний для користування",
	303: "Неможливо відкрити сокет IRC",
	304: "Неможливо встановити неблокуючий режим для сокет IRC",

	400: "Відсутні права для запуска TCP сервера",
	401: "Сокет TCP занятий",
	402: "Сокет TCP недоступний для користування",
	403: "Неможливо відкрити сокет TCP",
	404: "Неможливо встановити неблокуючий режим для сокет TCP",

	500: "Проблеми з чергою потоків",
	501: "Переплутані з'єднання",
	502: "Неможливо використовувати каталог для кеша прайсів",
	503: "Неможливо створити каталог для кеша прайсів",

	600: "Некорректна строка підключення до бази даних",
	601: "Помилка з'єднання з базою даних",
	602: "Помилка виконання запиту до бази даних",
	603: "Не вдалося встановити початкові параметри підключення",
}
